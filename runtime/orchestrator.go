// Package runtime handles command dispatch, fan-out, and presence. It
// orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"dm-lab/contract"
	"dm-lab/domain"
	"dm-lab/observability"
	"dm-lab/runtime/workers"
	"dm-lab/services"
)

type Orchestrator struct {
	log         *slog.Logger
	numWorkers  int
	supervisor  contract.ISupervisor
	messages    services.IMessageService
	broadcaster *Broadcaster
	presence    *PresenceRegistry
	tracker     *observability.HealthTracker
	commands    chan domain.Command
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	messages services.IMessageService, broadcaster *Broadcaster,
	presence *PresenceRegistry, tracker *observability.HealthTracker,
	numWorkers, bufferSize int) *Orchestrator {
	return &Orchestrator{
		log:         log,
		numWorkers:  numWorkers,
		supervisor:  supervisor,
		messages:    messages,
		broadcaster: broadcaster,
		presence:    presence,
		tracker:     tracker,
		commands:    make(chan domain.Command, bufferSize),
	}
}

// Dispatch hands an inbound command to the worker pool without blocking the
// caller's connection. A full queue drops the command under load.
func (o *Orchestrator) Dispatch(cmd domain.Command) {
	select {
	case o.commands <- cmd:
	default:
		o.log.Warn("Command channel full, dropping command", "actor", cmd.Actor())
	}
}

func (o *Orchestrator) Presence() *PresenceRegistry { return o.presence }

// Start registers the worker pool, the broadcaster, and the telemetry
// sampler with the supervisor and launches them. It returns once everything
// is running; Stop tears it down.
func (o *Orchestrator) Start(ctx context.Context) {
	for i := 0; i < o.numWorkers; i++ {
		o.supervisor.Add(workers.NewDispatchWorker(o.messages, o.commands, o.broadcaster, o.log))
	}
	o.supervisor.Add(o.broadcaster)
	o.supervisor.Add(workers.NewTelemetryWorker(o.log, o.tracker, 15*time.Second))

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
}

// Stop cancels the supervision context and lets in-flight work drain.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
