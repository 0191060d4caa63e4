// Package cache persists a built annotation index to a DuckDB database so
// the GTF parse and tree build happen once per annotation set, not once
// per run.
package cache

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/matchannot/matchannot/internal/annot"
)

// Store is a DuckDB-backed annotation index store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) a store at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the tables holding the annotation hierarchy. Keys
// are assigned at save time; ord columns preserve the in-order child
// positions so a loaded index is identical to the saved one.
func (s *Store) CreateSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS genes (
			gene_key BIGINT PRIMARY KEY,
			chrom VARCHAR,
			ord INTEGER,
			name VARCHAR,
			start BIGINT,
			end_ BIGINT,
			strand TINYINT
		);

		CREATE TABLE IF NOT EXISTS transcripts (
			tran_key BIGINT PRIMARY KEY,
			gene_key BIGINT,
			ord INTEGER,
			name VARCHAR,
			id VARCHAR,
			start BIGINT,
			end_ BIGINT,
			strand TINYINT,
			length BIGINT,
			start_codon BIGINT,
			stop_codon BIGINT
		);

		CREATE TABLE IF NOT EXISTS exons (
			tran_key BIGINT,
			ord INTEGER,
			name VARCHAR,
			start BIGINT,
			end_ BIGINT,
			strand TINYINT,
			PRIMARY KEY (tran_key, ord)
		);

		CREATE INDEX IF NOT EXISTS idx_genes_pos ON genes(chrom, ord);
		CREATE INDEX IF NOT EXISTS idx_transcripts_gene ON transcripts(gene_key, ord);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveIndex writes the whole index.
func (s *Store) SaveIndex(ix *annot.Index) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var geneKey, tranKey int64

	for _, chrom := range ix.Chromosomes() {
		top, err := ix.GenesFor(chrom)
		if err != nil {
			return err
		}
		for geneOrd, gene := range top.Children() {
			geneKey++
			_, err := tx.Exec(`
				INSERT INTO genes (gene_key, chrom, ord, name, start, end_, strand)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, geneKey, chrom, geneOrd, gene.Name, gene.Start, gene.End, gene.Strand)
			if err != nil {
				return fmt.Errorf("insert gene %s: %w", gene.Name, err)
			}

			for tranOrd, tran := range gene.Children() {
				tranKey++
				_, err := tx.Exec(`
					INSERT INTO transcripts (tran_key, gene_key, ord, name, id,
					                         start, end_, strand, length,
					                         start_codon, stop_codon)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				`, tranKey, geneKey, tranOrd, tran.Name, tran.ID,
					tran.Start, tran.End, tran.Strand, tran.Length,
					nullInt64(tran.StartCodon), nullInt64(tran.StopCodon))
				if err != nil {
					return fmt.Errorf("insert transcript %s: %w", tran.Name, err)
				}

				for exonOrd, exon := range tran.Children() {
					_, err := tx.Exec(`
						INSERT INTO exons (tran_key, ord, name, start, end_, strand)
						VALUES (?, ?, ?, ?, ?, ?)
					`, tranKey, exonOrd, exon.Name, exon.Start, exon.End, exon.Strand)
					if err != nil {
						return fmt.Errorf("insert exon %s: %w", exon.Name, err)
					}
				}
			}
		}
	}

	return tx.Commit()
}

// LoadIndex reads the whole index back, children in their saved order.
func (s *Store) LoadIndex() (*annot.Index, error) {
	ix := annot.NewIndex()

	genes := make(map[int64]*annot.Annotation)
	rows, err := s.db.Query(`
		SELECT gene_key, chrom, name, start, end_, strand
		FROM genes
		ORDER BY chrom, ord
	`)
	if err != nil {
		return nil, fmt.Errorf("query genes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key int64
		var chrom, name string
		var start, end int64
		var strand int8
		if err := rows.Scan(&key, &chrom, &name, &start, &end, &strand); err != nil {
			return nil, fmt.Errorf("scan gene: %w", err)
		}
		gene := annot.NewAnnotation(start, end, strand, name)
		ix.Chrom(chrom).AddChild(gene)
		genes[key] = gene
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trans := make(map[int64]*annot.Annotation)
	rows, err = s.db.Query(`
		SELECT tran_key, gene_key, name, id, start, end_, strand, length,
		       start_codon, stop_codon
		FROM transcripts
		ORDER BY gene_key, ord
	`)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, geneKey int64
		var name, id string
		var start, end, length int64
		var strand int8
		var startCodon, stopCodon sql.NullInt64
		if err := rows.Scan(&key, &geneKey, &name, &id, &start, &end, &strand,
			&length, &startCodon, &stopCodon); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		gene, ok := genes[geneKey]
		if !ok {
			return nil, fmt.Errorf("transcript %s references unknown gene key %d", name, geneKey)
		}
		tran := annot.NewAnnotation(start, end, strand, name)
		tran.ID = id
		tran.Length = length
		tran.StartCodon = startCodon.Int64
		tran.StopCodon = stopCodon.Int64
		gene.AddChild(tran)
		trans[key] = tran
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT tran_key, name, start, end_, strand
		FROM exons
		ORDER BY tran_key, ord
	`)
	if err != nil {
		return nil, fmt.Errorf("query exons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tranKey int64
		var name string
		var start, end int64
		var strand int8
		if err := rows.Scan(&tranKey, &name, &start, &end, &strand); err != nil {
			return nil, fmt.Errorf("scan exon: %w", err)
		}
		tran, ok := trans[tranKey]
		if !ok {
			return nil, fmt.Errorf("exon %s references unknown transcript key %d", name, tranKey)
		}
		tran.AddChild(annot.NewAnnotation(start, end, strand, name))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ix, nil
}

// GeneCount returns the number of stored genes.
func (s *Store) GeneCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM genes").Scan(&count)
	return count, err
}

// IsCache checks whether a path names a DuckDB annotation cache.
func IsCache(path string) bool {
	return strings.HasSuffix(path, ".duckdb") || strings.HasSuffix(path, ".db")
}

// nullInt64 returns nil if n is 0, otherwise n.
func nullInt64(n int64) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
