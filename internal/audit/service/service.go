package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mustafamuse/irshad-center-sub014/internal/audit/domain"
	"github.com/mustafamuse/irshad-center-sub014/internal/clock"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clk   clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clk   clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clk:   p.Clk,
		repo:  p.Repo,
	}
}

// Record appends one audit row. Failures are logged, never returned: the
// disposition of the event being audited must not depend on this write.
func (s *Service) Record(ctx context.Context, entry domain.Entry) {
	actorType := entry.ActorType
	if actorType == "" {
		actorType = domain.ActorTypeSystem
	}

	metadata := datatypes.JSONMap{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}

	row := &domain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(actorType),
		Action:     entry.Action,
		TargetType: entry.TargetType,
		Metadata:   metadata,
		CreatedAt:  s.clk.Now(),
	}
	if entry.ActorID != "" {
		actorID := entry.ActorID
		row.ActorID = &actorID
	}
	if entry.TargetID != "" {
		targetID := entry.TargetID
		row.TargetID = &targetID
	}

	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		s.log.Error("audit insert failed",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}
