// Package sequence reads, filters and writes protein FASTA files ahead of
// structure prediction.
package sequence

import (
	"bufio"
	"io"
	"os"
	"strings"

	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// lineWidth is the residue count per line when writing FASTA.
const lineWidth = 60

// Record is one FASTA entry.  ID is the first whitespace-delimited token of
// the header; Description is the full header without '>'.
type Record struct {
	ID          string
	Description string
	Seq         string
}

// Len returns the residue count.
func (r Record) Len() int { return len(r.Seq) }

// ReadFASTA parses FASTA records from r.  Text before the first header is
// rejected.
func ReadFASTA(r io.Reader) ([]Record, error) {
	var out []Record
	var cur *Record
	var seq strings.Builder

	flush := func() {
		if cur != nil {
			cur.Seq = seq.String()
			out = append(out, *cur)
			seq.Reset()
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, ">") {
			flush()
			desc := strings.TrimSpace(text[1:])
			id := desc
			if i := strings.IndexAny(desc, " \t"); i >= 0 {
				id = desc[:i]
			}
			cur = &Record{ID: id, Description: desc}
			continue
		}
		if cur == nil {
			return nil, apperrors.Newf(apperrors.ErrCodeSequenceParse, "line %d: sequence data before first header", line)
		}
		seq.WriteString(strings.Join(strings.Fields(text), ""))
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSequenceParse, "failed to read FASTA")
	}
	flush()
	return out, nil
}

// ReadFASTAFile parses the FASTA file at path.
func ReadFASTAFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("FASTA file not found").WithDetail(path)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSequenceParse, "failed to open FASTA")
	}
	defer f.Close()
	return ReadFASTA(f)
}

// WriteFASTA writes records with sequences wrapped at 60 residues.
func WriteFASTA(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		header := r.Description
		if header == "" {
			header = r.ID
		}
		if _, err := bw.WriteString(">" + header + "\n"); err != nil {
			return err
		}
		for i := 0; i < len(r.Seq); i += lineWidth {
			end := i + lineWidth
			if end > len(r.Seq) {
				end = len(r.Seq)
			}
			if _, err := bw.WriteString(r.Seq[i:end] + "\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// validResidues is the accepted one-letter alphabet including stop and
// unknown.
const validResidues = "ACDEFGHIKLMNPQRSTVWY*X"

// ValidateSequence reports whether seq uses only the amino-acid alphabet.
// Case is ignored.
func ValidateSequence(seq string) bool {
	for _, c := range strings.ToUpper(seq) {
		if !strings.ContainsRune(validResidues, c) {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
