// Package gtf reads GENCODE-style annotation files and emits decoded
// records for the annotation index builder.
package gtf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"github.com/matchannot/matchannot/internal/annot"
)

// Loader reads annotation records from a GTF file, plain or gzipped.
type Loader struct {
	path string
}

// NewLoader creates a loader for a GTF file.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load builds an annotation index from a standard-format file, where
// genes, transcripts and exons each have explicit entries.
func (l *Loader) Load() (*annot.Index, error) {
	return annot.BuildIndex(l.records(false))
}

// LoadFlat builds an annotation index from an alternate-format file,
// where only exons have entries and gene/transcript bounds are inferred.
func (l *Loader) LoadFlat() (*annot.Index, error) {
	return annot.BuildIndexFlat(l.records(true))
}

// records yields decoded records in file order. In alt mode, gene and
// transcript identity comes from the exon entries themselves, falling
// back from gene_name to gene_id and between transcript_name and
// transcript_id, since tag conventions are not standardized across
// annotation sources.
func (l *Loader) records(alt bool) iter.Seq2[annot.Record, error] {
	return func(yield func(annot.Record, error) bool) {
		f, err := os.Open(l.path)
		if err != nil {
			yield(annot.Record{}, fmt.Errorf("open annotation file: %w", err))
			return
		}
		defer f.Close()

		var reader io.Reader = f
		if strings.HasSuffix(l.path, ".gz") {
			gz, err := gzip.NewReader(f)
			if err != nil {
				yield(annot.Record{}, fmt.Errorf("open gzip reader: %w", err))
				return
			}
			defer gz.Close()
			reader = gz
		}

		scanner := bufio.NewScanner(reader)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			rec, ok, err := parseLine(line, alt)
			if err != nil {
				yield(annot.Record{}, fmt.Errorf("line %d: %w", lineNum, err))
				return
			}
			if !ok {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(annot.Record{}, fmt.Errorf("scan annotation file: %w", err))
		}
	}
}

// parseLine decodes one GTF line into a record. ok is false for feature
// types the index does not track.
func parseLine(line string, alt bool) (annot.Record, bool, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return annot.Record{}, false, fmt.Errorf("expected 9 fields, got %d", len(fields))
	}

	featureType := fields[2]
	switch featureType {
	case annot.RecordGene, annot.RecordTranscript, annot.RecordExon:
		if alt && featureType != annot.RecordExon {
			return annot.Record{}, false, nil
		}
	case annot.RecordStartCodon, annot.RecordStopCodon:
	default:
		return annot.Record{}, false, nil
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return annot.Record{}, false, fmt.Errorf("parse start: %w", err)
	}
	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return annot.Record{}, false, fmt.Errorf("parse end: %w", err)
	}

	attrs := parseAttributes(fields[8])

	rec := annot.Record{
		Chrom:  fields[0],
		Type:   featureType,
		Start:  start,
		End:    end,
		Strand: annot.ParseStrand(fields[6]),
	}

	rec.GeneName = attrs["gene_name"]
	if rec.GeneName == "" {
		rec.GeneName = attrs["gene_id"]
	}
	if rec.GeneName == "" && featureType != annot.RecordStartCodon && featureType != annot.RecordStopCodon {
		return annot.Record{}, false, fmt.Errorf("no gene_name/gene_id field in %q", line)
	}

	rec.TranName = attrs["transcript_name"]
	rec.TranID = attrs["transcript_id"]
	if rec.TranName == "" {
		rec.TranName = rec.TranID
	}
	if rec.TranID == "" {
		rec.TranID = rec.TranName
	}

	switch featureType {
	case annot.RecordTranscript, annot.RecordExon:
		if rec.TranName == "" {
			return annot.Record{}, false, fmt.Errorf("no transcript_name/transcript_id field in %q", line)
		}
	}

	if featureType == annot.RecordExon {
		if num := attrs["exon_number"]; num != "" {
			n, err := strconv.Atoi(num)
			if err != nil {
				return annot.Record{}, false, fmt.Errorf("parse exon_number: %w", err)
			}
			rec.ExonNumber = n
		}
	}

	return rec, true, nil
}

// parseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ...
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	parts := strings.Split(attrStr, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.TrimSpace(part[idx+1:])
		value = strings.Trim(value, "\"")

		attrs[key] = value
	}

	return attrs
}
