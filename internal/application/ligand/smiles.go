package ligand

import (
	"fmt"
	"strings"
)

// smilesChars is the character set accepted by the syntactic check: atom
// letters, digits, bonds, branches, ring closures, charges and stereo marks.
const smilesChars = "()[]=#$:/\\.@+-%*"

// ValidateSMILES performs a syntactic sanity check before any conversion is
// attempted.  It does not perceive chemistry; Open Babel remains the
// authority on whether a string describes a molecule.
func ValidateSMILES(smiles string) error {
	if smiles == "" {
		return fmt.Errorf("SMILES must not be empty")
	}

	parenDepth := 0
	bracketDepth := 0
	hasAtom := false

	for _, ch := range smiles {
		switch ch {
		case '(':
			parenDepth++
		case ')':
			parenDepth--
			if parenDepth < 0 {
				return fmt.Errorf("unbalanced parentheses in SMILES: %q", smiles)
			}
		case '[':
			if bracketDepth > 0 {
				return fmt.Errorf("nested square brackets in SMILES: %q", smiles)
			}
			bracketDepth++
		case ']':
			bracketDepth--
			if bracketDepth < 0 {
				return fmt.Errorf("unbalanced square brackets in SMILES: %q", smiles)
			}
		}
		switch {
		case (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z'):
			hasAtom = true
		case ch >= '0' && ch <= '9':
		case strings.ContainsRune(smilesChars, ch):
		default:
			return fmt.Errorf("invalid character %q in SMILES: %q", ch, smiles)
		}
	}

	if parenDepth != 0 {
		return fmt.Errorf("unbalanced parentheses in SMILES: %q", smiles)
	}
	if bracketDepth != 0 {
		return fmt.Errorf("unbalanced square brackets in SMILES: %q", smiles)
	}
	if !hasAtom {
		return fmt.Errorf("SMILES contains no atom symbols: %q", smiles)
	}
	return nil
}

//Personal.AI order the ending
