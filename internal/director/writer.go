package director

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteAnimation writes an animation to a YAML or JSON file, chosen by extension
func WriteAnimation(anim *Animation, path string) error {
	var data []byte
	var err error
	if isJSON(path) {
		data, err = json.MarshalIndent(anim, "", "\t")
	} else {
		data, err = yaml.Marshal(anim)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadAnimation reads an animation from a YAML or JSON file, chosen by extension
func ReadAnimation(path string) (*Animation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var anim Animation
	if isJSON(path) {
		err = json.Unmarshal(data, &anim)
	} else {
		err = yaml.Unmarshal(data, &anim)
	}
	if err != nil {
		return nil, err
	}

	return &anim, nil
}

// ExportJSON writes the animation in the editor export format (tab-indented JSON)
func ExportJSON(w io.Writer, anim *Animation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(anim)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
