package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is an immutable Reading stamped with an identifier and a UTC capture time.
type Record struct {
	id        uuid.UUID
	timestamp time.Time
	reading   Reading
}

func NewRecord(id uuid.UUID, timestamp time.Time, reading Reading) Record {
	return Record{id: id, timestamp: timestamp.UTC(), reading: reading}
}

func (r Record) ID() uuid.UUID { return r.id }

func (r Record) Timestamp() time.Time { return r.timestamp }

func (r Record) Reading() Reading { return r.reading }

func (r Record) String() string {
	return fmt.Sprintf("[%s] %s (%s)", r.timestamp.Format(time.RFC3339Nano), r.reading, r.id)
}

// Assembler mints identity and capture time for new records.
type Assembler struct {
	NewID func() uuid.UUID
	Now   func() time.Time
}

// DefaultAssembler draws v4 identifiers from crypto/rand and reads the wall clock.
var DefaultAssembler = Assembler{
	NewID: uuid.New,
	Now:   time.Now,
}

func (a Assembler) Assemble(reading Reading) Record {
	newID := a.NewID
	if newID == nil {
		newID = uuid.New
	}
	now := a.Now
	if now == nil {
		now = time.Now
	}
	return NewRecord(newID(), now(), reading)
}

func Assemble(reading Reading) Record {
	return DefaultAssembler.Assemble(reading)
}
