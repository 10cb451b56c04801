// Package docking defines the value types that flow between the pocket,
// ligand, docking and result stages.
package docking

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StructureFile is a predicted protein structure on disk.
type StructureFile struct {
	ID   string
	Path string
}

// NewStructureFile derives the identifier from the base filename stem.
func NewStructureFile(path string) StructureFile {
	return StructureFile{ID: Stem(path), Path: path}
}

// ReceptorPath is the cached dockable conversion beside the structure.
func (s StructureFile) ReceptorPath() string {
	return strings.TrimSuffix(s.Path, filepath.Ext(s.Path)) + ".pdbqt"
}

// Stem returns the base filename of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PocketRecord is one predicted binding site.  Rank is unique per structure
// and follows the detector's ordering.
type PocketRecord struct {
	Structure       string
	Rank            int
	Center          Center
	Score           float64
	Probability     *float64
	PredictionsPath string
}

// StructureID returns the stem of the structure path.
func (p PocketRecord) StructureID() string {
	return Stem(p.Structure)
}

// Key identifies the pocket for filenames and logs.
func (p PocketRecord) Key() string {
	return fmt.Sprintf("%s_p%d", p.StructureID(), p.Rank)
}

// Ligand is a prepared small molecule ready for docking.
type Ligand struct {
	Source string
	PH     float64
	Path   string
}

// BoxParams are the search-box and engine settings shared by a batch.
type BoxParams struct {
	BoxSize        float64
	Exhaustiveness int
	NumModes       int
}

// DockingTask is one engine invocation.  It is executed exactly once.
type DockingTask struct {
	Structure string
	Rank      int
	Center    Center
	BoxParams
}

// NewTask copies the pocket's center into a task.
func NewTask(p PocketRecord, params BoxParams) DockingTask {
	return DockingTask{Structure: p.Structure, Rank: p.Rank, Center: p.Center, BoxParams: params}
}

// OutputName returns the pose filename for the task.
func (t DockingTask) OutputName() string {
	return fmt.Sprintf("dock_%s_p%d.pdbqt", Stem(t.Structure), t.Rank)
}

// LogName returns the engine log filename for the task.
func (t DockingTask) LogName() string {
	return fmt.Sprintf("dock_%s_p%d.log", Stem(t.Structure), t.Rank)
}

// DockingResult is the outcome of one task.  Affinity is nil when the task
// failed or no score could be read; OutPath and LogPath are empty on failure.
type DockingResult struct {
	Structure string
	Rank      int
	OutPath   string
	LogPath   string
	Affinity  *float64
	Center    Center
}

// Succeeded reports whether an affinity was obtained.
func (r DockingResult) Succeeded() bool { return r.Affinity != nil }

// FailedResult builds the null-affinity result for t.
func FailedResult(t DockingTask) DockingResult {
	return DockingResult{Structure: t.Structure, Rank: t.Rank, Center: t.Center}
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

//Personal.AI order the ending
