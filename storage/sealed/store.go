// Package sealed persists session values encrypted at rest: one age-sealed
// file per key, sealed to a scrypt recipient derived from the device
// secret. Tampered or foreign ciphertext fails to decrypt and surfaces as
// an error, never as a value.
package sealed

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"github.com/pkg/errors"

	"github.com/darasahq/shule/core/session"
)

type Store struct {
	dir        string
	secret     string
	workFactor int
}

var _ session.Store = (*Store)(nil)

type Option func(*Store)

// WithWorkFactor overrides the scrypt work factor (default 18). Tests use
// a small value; the sealing is then fast but weak.
func WithWorkFactor(n int) Option {
	return func(s *Store) { s.workFactor = n }
}

// NewStore opens (creating if needed) a sealed store rooted at dir.
func NewStore(dir, secret string, opts ...Option) (*Store, error) {
	if secret == "" {
		return nil, errors.New("sealed: device secret is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "sealed: create %s", dir)
	}
	s := &Store{dir: dir, secret: secret, workFactor: 18}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".age")
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, session.ErrKeyNotFound
		}
		return nil, errors.Wrapf(err, "sealed: read %s", key)
	}

	identity, err := age.NewScryptIdentity(s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "sealed: identity")
	}
	r, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return nil, errors.Wrapf(err, "sealed: unseal %s", key)
	}
	val, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "sealed: unseal %s", key)
	}
	return val, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	recipient, err := age.NewScryptRecipient(s.secret)
	if err != nil {
		return errors.Wrap(err, "sealed: recipient")
	}
	recipient.SetWorkFactor(s.workFactor)

	var sealedBuf bytes.Buffer
	w, err := age.Encrypt(&sealedBuf, recipient)
	if err != nil {
		return errors.Wrapf(err, "sealed: seal %s", key)
	}
	if _, err := w.Write(value); err != nil {
		return errors.Wrapf(err, "sealed: seal %s", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "sealed: seal %s", key)
	}

	// Write-then-rename so a crash mid-write cannot tear the stored value.
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "sealed: write %s", key)
	}
	if _, err := tmp.Write(sealedBuf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "sealed: write %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "sealed: write %s", key)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "sealed: write %s", key)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "sealed: delete %s", key)
	}
	return nil
}
