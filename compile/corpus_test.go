package compile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/gogpu/shaderport/rewrite"
)

// playgroundShader is an input loaded from testdata/playground.
type playgroundShader struct {
	name   string
	source string
}

func loadPlaygroundShaders(t *testing.T, dir string) []playgroundShader {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	var shaders []playgroundShader
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".glsl" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		shaders = append(shaders, playgroundShader{
			name:   strings.TrimSuffix(e.Name(), ".glsl"),
			source: string(data),
		})
	}
	sort.Slice(shaders, func(i, j int) bool { return shaders[i].name < shaders[j].name })
	return shaders
}

// TestPlaygroundCorpus rewrites every playground shader and compiles it with
// the in-process toolkit only.
func TestPlaygroundCorpus(t *testing.T) {
	shaders := loadPlaygroundShaders(t, filepath.Join("testdata", "playground"))
	if len(shaders) == 0 {
		t.Fatal("no shaders found in testdata/playground")
	}

	for _, shader := range shaders {
		t.Run(shader.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, shader.name+".frag")
			out := filepath.Join(dir, shader.name+".frag.spv")

			p := New(Options{DisableExternal: true})
			res, err := p.Compile(context.Background(), src, rewrite.Rewrite(shader.source), out)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if res.Info == nil || !res.Info.HasEntryPoint("Fragment") {
				t.Fatalf("no fragment entry point: %+v", res.Info)
			}

			bindings := map[string]int{}
			for _, v := range res.Info.Resources() {
				bindings[v.StorageClass]++
			}
			if bindings["Uniform"] != 1 {
				t.Errorf("expected one uniform block, got %v", bindings)
			}
		})
	}
}
