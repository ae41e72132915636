package classifier

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// LoadForest reads a forest artifact (JSON, optionally gzip-compressed) and
// validates it
func LoadForest(path string) (*RandomForest, error) {
	var forest RandomForest
	if err := decodeArtifact(path, &forest); err != nil {
		return nil, &IntegrityError{Artifact: path, Err: err}
	}
	if err := forest.Validate(); err != nil {
		return nil, &IntegrityError{Artifact: path, Err: err}
	}
	return &forest, nil
}

// LoadScaler reads a scaler artifact (JSON, optionally gzip-compressed) and
// validates it
func LoadScaler(path string) (*StandardScaler, error) {
	var scaler StandardScaler
	if err := decodeArtifact(path, &scaler); err != nil {
		return nil, &IntegrityError{Artifact: path, Err: err}
	}
	if err := scaler.Validate(); err != nil {
		return nil, &IntegrityError{Artifact: path, Err: err}
	}
	return &scaler, nil
}

func decodeArtifact(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br

	head, err := br.Peek(2)
	if err == nil && bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("invalid gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid artifact: %w", err)
	}
	return nil
}
