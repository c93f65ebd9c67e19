package kustomize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Kustomization struct {
	APIVersion string   `yaml:"apiVersion,omitempty"`
	Kind       string   `yaml:"kind,omitempty"`
	Namespace  string   `yaml:"namespace,omitempty"`
	Resources  []string `yaml:"resources,omitempty"`
}

// UpdateKustomization makes sure dir/kustomization.yaml exists and lists
// every file in newFiles (bare file names). Existing resources keep their
// order. namespace is only set when the file has none yet.
func UpdateKustomization(dir string, newFiles []string, namespace string) error {
	var uniq []string
	seen := map[string]struct{}{}
	for _, f := range newFiles {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		uniq = append(uniq, f)
	}
	if len(uniq) == 0 {
		return nil
	}

	kpath := filepath.Join(dir, "kustomization.yaml")
	k, err := Read(kpath)
	if err != nil {
		return err
	}

	if k.APIVersion == "" {
		k.APIVersion = "kustomize.config.k8s.io/v1beta1"
	}
	if k.Kind == "" {
		k.Kind = "Kustomization"
	}
	if namespace != "" && k.Namespace == "" {
		k.Namespace = namespace
	}

	existing := map[string]struct{}{}
	for _, r := range k.Resources {
		existing[strings.TrimSpace(r)] = struct{}{}
	}
	for _, f := range uniq {
		if _, ok := existing[f]; !ok {
			k.Resources = append(k.Resources, f)
		}
	}

	out, err := yaml.Marshal(k)
	if err != nil {
		return fmt.Errorf("serializing kustomization: %w", err)
	}
	if err := os.WriteFile(kpath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", kpath, err)
	}
	return nil
}

// Read parses a kustomization file; a missing file yields an empty one.
func Read(path string) (*Kustomization, error) {
	var k Kustomization
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &k, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &k, nil
}
