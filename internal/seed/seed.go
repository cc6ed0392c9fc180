// Package seed imports a class schedule from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/models"
)

// Schedule is the seed file layout.
type Schedule struct {
	Classes []models.CreateClassRequest `yaml:"classes"`
}

// Load reads a schedule from path.
func Load(path string) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Schedule, error) {
	var s Schedule
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	return &s, nil
}

// ClassCreator is satisfied by *core.GymService.
type ClassCreator interface {
	CreateClass(ctx context.Context, req models.CreateClassRequest) core.Result[*models.GymClass]
}

// Apply creates every class in s and returns how many were created. It
// stops at the first failure.
func Apply(ctx context.Context, s *Schedule, classes ClassCreator, logger *zap.Logger) (int, error) {
	for i, c := range s.Classes {
		r := classes.CreateClass(ctx, c)
		if !r.Success {
			return i, fmt.Errorf("class %d (%s): %s", i+1, c.Name, r.Error)
		}
		logger.Info("class created", zap.String("id", r.Data.ID), zap.String("name", r.Data.Name), zap.Time("startsAt", r.Data.StartsAt))
	}
	return len(s.Classes), nil
}
