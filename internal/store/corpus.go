package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

type corpusRepo struct {
	db *sql.DB
}

// ReplaceCorpus deletes the stored corpus and writes data in a single
// transaction, so readers see either the old or the new version.
func (r *corpusRepo) ReplaceCorpus(ctx context.Context, data CorpusData) error {
	dims := 0
	if len(data.Chunks) > 0 {
		dims = len(data.Chunks[0].Vector)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus_versions`); err != nil {
		return fmt.Errorf("clear versions: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO corpus_versions (version, model, dimensions, created_at) VALUES (?, ?, ?, ?)`,
		data.Version, data.Model, dims, toMillis(data.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO corpus_chunks
		(version, id, source, source_offset, content, vector) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range data.Chunks {
		if _, err := stmt.ExecContext(ctx, data.Version, c.ID, c.Source, c.Offset, c.Text, encodeVector(c.Vector)); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit corpus: %w", err)
	}
	return nil
}

func (r *corpusRepo) LoadCorpus(ctx context.Context) (*CorpusData, error) {
	var data CorpusData
	var dims int
	var created int64
	err := r.db.QueryRowContext(ctx,
		`SELECT version, model, dimensions, created_at FROM corpus_versions LIMIT 1`,
	).Scan(&data.Version, &data.Model, &dims, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load corpus version: %w", err)
	}
	data.CreatedAt = fromMillis(created)

	rows, err := r.db.QueryContext(ctx, `SELECT id, source, source_offset, content, vector
		FROM corpus_chunks WHERE version = ? ORDER BY id`, data.Version)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c ChunkRow
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Source, &c.Offset, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Vector, err = decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.ID, err)
		}
		if len(c.Vector) != dims {
			return nil, fmt.Errorf("chunk %d: vector has %d dimensions, corpus has %d", c.ID, len(c.Vector), dims)
		}
		data.Chunks = append(data.Chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &data, nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
