package provisioner

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"github.com/insightops/odag-provisioning-backend/interfaces"
	"github.com/insightops/odag-provisioning-backend/metrics"
)

// Provisioner runs the link provisioning sequence. Safe for concurrent use:
// per-request state lives on the stack, and the only shared field is the
// authentication marker.
type Provisioner struct {
	api       interfaces.ResourceAPI
	registrar interfaces.NavigationRegistrar
	log       *slog.Logger

	// authenticated latches after the first successful identity check so
	// later runs skip the round trip. Never reset; credential material
	// cannot change within a process lifetime.
	authenticated atomic.Bool
}

// New wires the orchestrator to its two remote surfaces.
func New(api interfaces.ResourceAPI, registrar interfaces.NavigationRegistrar, log *slog.Logger) *Provisioner {
	return &Provisioner{api: api, registrar: registrar, log: log}
}

// Provision runs one request to a terminal outcome. It never panics on
// remote failures; every failure mode maps onto the outcome taxonomy.
func (p *Provisioner) Provision(ctx context.Context, req interfaces.LinkRequest) interfaces.ProvisioningOutcome {
	start := time.Now()
	outcome := p.provision(ctx, req)
	metrics.RecordOutcome(string(outcome.Status), time.Since(start))

	switch outcome.Status {
	case interfaces.StatusSuccess:
		p.log.Info("Provisioning succeeded", "linkID", outcome.LinkID, "linkName", req.LinkName, "durationMs", time.Since(start).Milliseconds())
	case interfaces.StatusPartial:
		p.log.Warn("Provisioning partially succeeded, navigation must be registered manually",
			"linkID", outcome.LinkID, "linkName", req.LinkName, "err", outcome.NavigationError)
	default:
		p.log.Error("Provisioning failed", "linkName", req.LinkName, "err", outcome.Err)
	}
	return outcome
}

func (p *Provisioner) provision(ctx context.Context, req interfaces.LinkRequest) interfaces.ProvisioningOutcome {
	if err := req.Validate(); err != nil {
		return interfaces.FailureOutcome(err)
	}

	if err := p.ensureAuthenticated(ctx); err != nil {
		return interfaces.FailureOutcome(&interfaces.AuthenticationError{Err: err})
	}

	selection, err := p.resolveApplication(ctx, interfaces.RoleSelection, req.SelectionAppID)
	if err != nil {
		return interfaces.FailureOutcome(err)
	}
	template, err := p.resolveApplication(ctx, interfaces.RoleTemplate, req.TemplateAppID)
	if err != nil {
		return interfaces.FailureOutcome(err)
	}

	link, err := p.api.CreateLink(ctx, req)
	if err != nil {
		return interfaces.FailureOutcome(err)
	}

	navStart := time.Now()
	navErr := p.registrar.RegisterNavigation(ctx, req.SelectionAppID, link)
	metrics.RecordEngineSession(time.Since(navStart), navErr == nil)
	if navErr != nil {
		return interfaces.PartialSuccessOutcome(link.ID, selection.Name, template.Name, navErr)
	}

	return interfaces.SuccessOutcome(link.ID, selection.Name, template.Name)
}

// ensureAuthenticated establishes identity on first use and reuses it
// afterwards. Concurrent first calls may both probe; the probe is read-only
// so the race is harmless.
func (p *Provisioner) ensureAuthenticated(ctx context.Context) error {
	if p.authenticated.Load() {
		return nil
	}
	if err := p.api.About(ctx); err != nil {
		return err
	}
	p.authenticated.Store(true)
	return nil
}

// resolveApplication validates one application identifier and returns its
// metadata. A clean "does not exist" answer maps onto AppNotFoundError.
func (p *Provisioner) resolveApplication(ctx context.Context, role interfaces.AppRole, id interfaces.AppID) (interfaces.AppValidationResult, error) {
	result, err := p.api.ValidateApplication(ctx, id)
	if err != nil {
		metrics.RecordAppLookup("error")
		return interfaces.AppValidationResult{}, err
	}
	if !result.Valid {
		metrics.RecordAppLookup("invalid")
		return interfaces.AppValidationResult{}, &interfaces.AppNotFoundError{Role: role, ID: id}
	}
	metrics.RecordAppLookup("valid")
	return result, nil
}

// TestConnection exercises authentication and probes each remote subsystem.
// Failures land in the report, never in an error return.
func (p *Provisioner) TestConnection(ctx context.Context) interfaces.ConnectivityReport {
	var report interfaces.ConnectivityReport

	if err := p.api.About(ctx); err != nil {
		report.ResourceAPI = interfaces.SubsystemStatus{Reachable: false, Error: err.Error()}
	} else {
		report.Authenticated = true
		report.ResourceAPI = interfaces.SubsystemStatus{Reachable: true}
		p.authenticated.Store(true)
	}

	if err := p.api.ProbeLinkService(ctx); err != nil {
		report.LinkService = interfaces.SubsystemStatus{Reachable: false, Error: err.Error()}
	} else {
		report.LinkService = interfaces.SubsystemStatus{Reachable: true}
	}

	if err := p.registrar.ProbeEngine(ctx); err != nil {
		report.Engine = interfaces.SubsystemStatus{Reachable: false, Error: err.Error()}
	} else {
		report.Engine = interfaces.SubsystemStatus{Reachable: true}
	}

	p.log.Info("Connectivity test finished",
		"authenticated", report.Authenticated,
		"resourceAPI", report.ResourceAPI.Reachable,
		"linkService", report.LinkService.Reachable,
		"engine", report.Engine.Reachable)
	return report
}
