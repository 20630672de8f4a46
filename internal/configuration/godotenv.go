package configuration

import (
	"fmt"
	"maps"

	"github.com/joho/godotenv"
)

// GodotenvProvider is an implementation wrapping the Godotenv framework.
type GodotenvProvider struct{}

// Read reads environment-style configuration files into a map (map[key]value).
// Later files take precedence over earlier ones.
func (*GodotenvProvider) Read(filenames ...string) (map[string]string, error) {
	data := make(map[string]string)

	for _, filename := range filenames {
		fileData, err := godotenv.Read(filename)
		if err != nil {
			return nil, fmt.Errorf("(config-godotenv) %w", err)
		}
		maps.Copy(data, fileData)
	}

	return data, nil
}
