package network

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads one GeoJSON network; the network is named after the file stem.
func LoadFile(path string) (*Network, error) {
	log.Printf("Loading network from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read network file: %w", err)
	}

	n, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", path, err)
	}

	n.Name = stem(path)
	return n, nil
}

// LoadDirectory loads every .geojson and .json file under folder, keyed by file stem.
func LoadDirectory(folder string) (map[string]*Network, error) {
	networks := make(map[string]*Network)

	err := filepath.Walk(folder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isNetworkFile(info.Name()) {
			return nil
		}
		n, err := LoadFile(path)
		if err != nil {
			return fmt.Errorf("error loading network from %s: %w", path, err)
		}
		networks[n.Name] = n
		return nil
	})

	if err != nil {
		return nil, err
	}
	return networks, nil
}

func isNetworkFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".geojson" || ext == ".json"
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
