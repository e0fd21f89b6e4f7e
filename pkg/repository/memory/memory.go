package memory

import (
	"errors"

	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// Memory is an in-memory Repository implementation for development and tests
type Memory struct {
	document *documentRepository
	user     *userRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		document: newDocumentRepository(),
		user:     newUserRepository(),
	}
}

func (m *Memory) Document() interfaces.DocumentRepository {
	return m.document
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Close() error {
	return nil
}
