// Package reconciler hosts the background job that sweeps short-handed
// teams. A roster may run below the tournament's team size for a bounded
// replacement window after someone leaves; teams still short when the
// deadline passes are disbanded and their slot released.
package reconciler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/minetourney/go-services/registration/service"
	"github.com/minetourney/go-services/registration/store"
	"github.com/minetourney/go-services/shared/cluster"
	"github.com/minetourney/go-services/shared/models"
)

// Reconciler periodically disbands teams that stayed below their
// tournament's team size past the replacement deadline. Responsibility for
// each team is split across service instances by consistent hashing, so
// exactly one instance acts on any given team.
type Reconciler struct {
	tournamentStore   *store.TournamentStore
	teamStore         *store.TeamStore
	regService        *service.RegistrationService
	assignmentManager *cluster.ServiceAssignmentManager
	interval          time.Duration
	deadline          time.Duration
	batchLimit        int
	logger            *zap.SugaredLogger

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a new Reconciler instance.
func New(
	tournamentStore *store.TournamentStore,
	teamStore *store.TeamStore,
	regService *service.RegistrationService,
	assignmentManager *cluster.ServiceAssignmentManager,
	interval, deadline time.Duration,
	batchLimit int,
	logger *zap.SugaredLogger,
) *Reconciler {
	return &Reconciler{
		tournamentStore:   tournamentStore,
		teamStore:         teamStore,
		regService:        regService,
		assignmentManager: assignmentManager,
		interval:          interval,
		deadline:          deadline,
		batchLimit:        batchLimit,
		logger:            logger,
		stopCh:            make(chan struct{}),
		doneCh:            make(chan struct{}),
	}
}

// Start begins the periodic sweep. Run it in a goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	defer close(r.doneCh)
	r.logger.Infof("Reconciler started: sweeping every %s, deadline %s.", r.interval, r.deadline)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runSweep(ctx)
		}
	}
}

// Stop signals the sweep loop to exit and waits for the current iteration
// to finish.
func (r *Reconciler) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.logger.Info("Reconciler stopped.")
}

// runSweep visits every active event and disbands its expired short-handed
// teams, stopping once the per-iteration batch limit is spent. Whatever is
// left over is picked up by the next tick.
func (r *Reconciler) runSweep(ctx context.Context) {
	budget := r.batchLimit

	tournaments, err := r.tournamentStore.ListTournaments(ctx)
	if err != nil {
		r.logger.Errorf("Reconciler: failed to list tournaments: %v", err)
		return
	}
	for _, t := range tournaments {
		if t.Status == models.TournamentCompleted {
			continue
		}
		budget -= r.sweepEvent(ctx, models.TournamentRef{TournamentID: t.ID}, t.TeamSize, budget)
		if budget <= 0 {
			r.logger.Infof("Reconciler: batch limit of %d reached, deferring the rest to the next sweep.", r.batchLimit)
			return
		}
	}

	buckets, err := r.tournamentStore.ListDateBuckets(ctx)
	if err != nil {
		r.logger.Errorf("Reconciler: failed to list date buckets: %v", err)
		return
	}
	for _, b := range buckets {
		budget -= r.sweepEvent(ctx, models.TournamentRef{Date: b.Date}, b.TeamSize, budget)
		if budget <= 0 {
			r.logger.Infof("Reconciler: batch limit of %d reached, deferring the rest to the next sweep.", r.batchLimit)
			return
		}
	}
}

// sweepEvent disbands up to budget expired short-handed teams under the ref
// and returns how many it disbanded.
func (r *Reconciler) sweepEvent(ctx context.Context, ref models.TournamentRef, teamSize, budget int) int {
	teams, err := r.teamStore.FindTeamsByRef(ctx, ref)
	if err != nil {
		r.logger.Errorf("Reconciler: failed to list teams for %s: %v", ref.Key(), err)
		return 0
	}

	disbanded := 0
	cutoff := time.Now().Add(-r.deadline)
	for _, team := range teams {
		if disbanded >= budget {
			return disbanded
		}
		if len(team.Players) >= teamSize {
			continue
		}
		if team.UpdatedAt.After(cutoff) {
			continue // replacement window still open
		}

		responsible, err := r.assignmentManager.IsResponsible(team.ID)
		if err != nil {
			r.logger.Warnf("Reconciler: responsibility check failed for team %s: %v", team.ID, err)
			continue
		}
		if !responsible {
			continue
		}

		if err := r.regService.DisbandTeam(ctx, service.Actor{UserID: "reconciler", Admin: true}, team.ID); err != nil {
			r.logger.Errorf("Reconciler: failed to disband expired team %s (%q): %v", team.ID, team.TeamName, err)
			continue
		}
		disbanded++
		r.logger.Infof("Reconciler: disbanded team %q (%s) in %s, short-handed since %s.",
			team.TeamName, team.ID, ref.Key(), team.UpdatedAt.Format(time.RFC3339))
	}
	return disbanded
}
