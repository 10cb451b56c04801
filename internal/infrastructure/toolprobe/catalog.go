package toolprobe

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Logical tool names.
const (
	ToolObabel = "obabel"
	ToolVina   = "vina"
	ToolP2Rank = "p2rank"
)

// CatalogOptions locates the tools on this host.
type CatalogOptions struct {
	ObabelPath string
	VinaPath   string
	JavaPath   string
	P2RankJar  string
	P2RankDir  string
	CondaPath  string
	CondaEnv   string
}

// Catalog returns the ToolSpecs for obabel, vina and p2rank.
func Catalog(opts CatalogOptions) []ToolSpec {
	if opts.ObabelPath == "" {
		opts.ObabelPath = "obabel"
	}
	if opts.VinaPath == "" {
		opts.VinaPath = "vina"
	}
	if opts.JavaPath == "" {
		opts.JavaPath = "java"
	}
	if opts.CondaPath == "" {
		opts.CondaPath = "conda"
	}

	obabel := ToolSpec{Name: ToolObabel, Candidates: []Strategy{Native{Path: opts.ObabelPath}}, ProbeArgs: []string{"-V"}}
	vina := ToolSpec{Name: ToolVina, Candidates: []Strategy{Native{Path: opts.VinaPath}}, ProbeArgs: []string{"--version"}}
	if opts.CondaEnv != "" {
		obabel.Candidates = append(obabel.Candidates, EnvIndirected{Manager: opts.CondaPath, Env: opts.CondaEnv, Tool: "obabel"})
		vina.Candidates = append(vina.Candidates, EnvIndirected{Manager: opts.CondaPath, Env: opts.CondaEnv, Tool: "vina"})
	}

	jar := opts.P2RankJar
	if jar == "" && opts.P2RankDir != "" {
		jar, _ = FindP2RankJar(opts.P2RankDir)
	}
	p2rank := ToolSpec{Name: ToolP2Rank, ProbeArgs: []string{"-version"}}
	if jar != "" {
		p2rank.Candidates = append(p2rank.Candidates, Wrapper{Launcher: opts.JavaPath, Prefix: []string{"-jar", jar}, Artifact: jar})
	} else {
		p2rank.Candidates = append(p2rank.Candidates, Native{Path: "prank"})
	}

	return []ToolSpec{obabel, vina, p2rank}
}

// FindP2RankJar searches dir recursively for p2rank.jar and returns the first
// match in lexical order.
func FindP2RankJar(dir string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		return "", err
	}
	matches, err := doublestar.Glob(os.DirFS(dir), "**/p2rank.jar")
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fs.ErrNotExist
	}
	sort.Strings(matches)
	return filepath.Join(dir, filepath.FromSlash(matches[0])), nil
}

//Personal.AI order the ending
