package kustomize

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestUpdateKustomizationCreates(t *testing.T) {
	dir := t.TempDir()

	if err := UpdateKustomization(dir, []string{"census-est.yaml", " census-est.yaml ", ""}, "data-jobs"); err != nil {
		t.Fatalf("UpdateKustomization() failed: %v", err)
	}

	k, err := Read(filepath.Join(dir, "kustomization.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if k.Kind != "Kustomization" || k.APIVersion != "kustomize.config.k8s.io/v1beta1" {
		t.Errorf("unexpected header %+v", k)
	}
	if k.Namespace != "data-jobs" {
		t.Errorf("namespace = %q", k.Namespace)
	}
	if !reflect.DeepEqual(k.Resources, []string{"census-est.yaml"}) {
		t.Errorf("resources = %v", k.Resources)
	}
}

func TestUpdateKustomizationMerges(t *testing.T) {
	dir := t.TempDir()
	existing := "apiVersion: kustomize.config.k8s.io/v1beta1\nkind: Kustomization\nnamespace: keep\nresources:\n  - other.yaml\n  - census-est.yaml\n"
	if err := os.WriteFile(filepath.Join(dir, "kustomization.yaml"), []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := UpdateKustomization(dir, []string{"census-est.yaml", "census-est-cron.yaml"}, "ignored"); err != nil {
		t.Fatalf("UpdateKustomization() failed: %v", err)
	}

	k, _ := Read(filepath.Join(dir, "kustomization.yaml"))
	if k.Namespace != "keep" {
		t.Errorf("existing namespace overwritten: %q", k.Namespace)
	}
	want := []string{"other.yaml", "census-est.yaml", "census-est-cron.yaml"}
	if !reflect.DeepEqual(k.Resources, want) {
		t.Errorf("resources = %v, want %v", k.Resources, want)
	}
}

func TestUpdateKustomizationNoFiles(t *testing.T) {
	dir := t.TempDir()
	if err := UpdateKustomization(dir, nil, "ns"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "kustomization.yaml")); !os.IsNotExist(err) {
		t.Error("kustomization written for empty file list")
	}
}
