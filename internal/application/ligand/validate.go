package ligand

import (
	"bufio"
	"os"
	"strings"

	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// ValidateLigandFile checks that path exists, is non-empty and contains at
// least one ATOM or HETATM record.
func ValidateLigandFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.New(apperrors.ErrCodePreparationFailed, "dockable ligand file was not created").WithDetail(path)
	}
	if info.Size() == 0 {
		return apperrors.New(apperrors.ErrCodePreparationFailed, "dockable ligand file is empty").WithDetail(path)
	}
	s, err := scanRecords(path)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodePreparationFailed, "failed to read ligand file")
	}
	if !s.atoms {
		return apperrors.New(apperrors.ErrCodePreparationFailed, "dockable ligand file contains no atoms").WithDetail(path)
	}
	return nil
}

// ValidatePDBQT reports whether path holds atom records and a torsion tree
// marker (ROOT or TORSDOF).
func ValidatePDBQT(path string) bool {
	s, err := scanRecords(path)
	if err != nil {
		return false
	}
	return s.atoms && (s.root || s.torsdof)
}

type recordSummary struct {
	atoms   bool
	root    bool
	torsdof bool
}

func scanRecords(path string) (recordSummary, error) {
	var s recordSummary
	f, err := os.Open(path)
	if err != nil {
		return s, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "ATOM"), strings.HasPrefix(line, "HETATM"):
			s.atoms = true
		case strings.HasPrefix(line, "ROOT"):
			s.root = true
		case strings.HasPrefix(line, "TORSDOF"):
			s.torsdof = true
		}
	}
	return s, sc.Err()
}

//Personal.AI order the ending
