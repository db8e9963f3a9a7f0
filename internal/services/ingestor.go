package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// IngestionService implements the Ingestor interface.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type IngestionService struct {
	sources     pgingest.ConnSource
	enumerator  pgingest.SourceEnumerator
	resolver    pgingest.IdentityResolver
	decoder     pgingest.Decoder
	provisioner pgingest.Provisioner
	transferer  pgingest.Transferer
	logger      pgingest.Logger
	now         func() time.Time
}

// NewIngestionService creates a new IngestionService with all dependencies injected.
// Panics on nil dependencies.
func NewIngestionService(
	sources pgingest.ConnSource,
	enumerator pgingest.SourceEnumerator,
	resolver pgingest.IdentityResolver,
	decoder pgingest.Decoder,
	provisioner pgingest.Provisioner,
	transferer pgingest.Transferer,
	logger pgingest.Logger,
) *IngestionService {
	if sources == nil {
		panic("sources cannot be nil")
	}
	if enumerator == nil {
		panic("enumerator cannot be nil")
	}
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	if decoder == nil {
		panic("decoder cannot be nil")
	}
	if provisioner == nil {
		panic("provisioner cannot be nil")
	}
	if transferer == nil {
		panic("transferer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &IngestionService{
		sources:     sources,
		enumerator:  enumerator,
		resolver:    resolver,
		decoder:     decoder,
		provisioner: provisioner,
		transferer:  transferer,
		logger:      logger,
		now:         time.Now,
	}
}

// Run ingests every recognized file of cfg.SourcePath, one job at a time.
//
// Job failures are recorded in the summary and never abort the run. Run
// returns an error only when the configuration is invalid, the directory
// cannot be enumerated (ErrNotFound), or ctx ends between jobs; in the last
// case the summary of the jobs already finished is returned with the error.
func (s *IngestionService) Run(ctx context.Context, cfg pgingest.IngestConfig) (*pgingest.RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	files, err := s.enumerator.Enumerate(cfg.SourcePath)
	if err != nil {
		return nil, err
	}

	summary := &pgingest.RunSummary{
		RunID:     uuid.New(),
		Directory: cfg.SourcePath,
		Namespace: cfg.EffectiveNamespace(),
		StartedAt: s.now(),
	}
	s.logger.Verbose("Run %s: ingesting %s into namespace %s (driver %s)",
		summary.RunID, cfg.SourcePath, summary.Namespace, s.sources.Driver())

	claimed := make(map[pgingest.TableIdentity]string)
	index := 0
	for src := range files {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = s.now()
			return summary, fmt.Errorf("run stopped after %d jobs: %w", index, err)
		}

		index++
		job := pgingest.LoadJob{Index: index, Source: src}
		started := s.now()
		outcome := s.runJob(ctx, cfg, summary.Namespace, &job, claimed)
		outcome.Duration = s.now().Sub(started)

		s.report(job, outcome)
		summary.Results = append(summary.Results, pgingest.JobResult{Job: job, Outcome: outcome})
	}

	summary.FinishedAt = s.now()
	s.logger.Info("Ingested %d file(s): %d succeeded, %d failed, %d rows in %v",
		len(summary.Results), summary.Succeeded(), summary.Failed(), summary.TotalRows(),
		summary.Duration().Round(time.Millisecond))

	return summary, nil
}

// runJob takes one source file through resolve, collision check, header
// decode, provisioning and transfer. The file handle and the connection are
// released on every path.
func (s *IngestionService) runJob(
	ctx context.Context,
	cfg pgingest.IngestConfig,
	namespace string,
	job *pgingest.LoadJob,
	claimed map[pgingest.TableIdentity]string,
) pgingest.Outcome {
	identity, err := s.resolver.Resolve(job.Source, namespace)
	if err != nil {
		return pgingest.Failed(err)
	}
	job.Identity = identity

	if first, taken := claimed[identity]; taken {
		return pgingest.Failed(fmt.Errorf("%w: %s and %s both map to table %s",
			pgingest.ErrIdentityCollision, first, job.Source.Name, identity))
	}
	claimed[identity] = job.Source.Name

	s.logger.Info("[%d] Processing %s into table %s", job.Index, job.Source.Name, identity)

	reader, err := s.decoder.Open(job.Source)
	if err != nil {
		return pgingest.Failed(err)
	}
	defer reader.Close()
	job.Columns = reader.Columns()

	if cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.JobTimeout)
		defer cancel()
	}

	conn, err := s.sources.Acquire(ctx)
	if err != nil {
		return pgingest.Failed(fmt.Errorf("%w: acquire connection: %w", pgingest.ErrProvisioning, err))
	}
	defer conn.Release()

	provisioned, err := s.provisioner.Ensure(ctx, conn, identity, job.Columns)
	if err != nil {
		return pgingest.Failed(err)
	}

	result, err := s.transferer.Transfer(ctx, conn, identity, job.Columns, reader)
	if err != nil {
		outcome := pgingest.Failed(err)
		outcome.TableCreated = provisioned.TableCreated
		return outcome
	}

	outcome := pgingest.Succeeded(result.Rows)
	outcome.TableCreated = provisioned.TableCreated
	outcome.Strategy = result.Strategy
	return outcome
}

func (s *IngestionService) report(job pgingest.LoadJob, outcome pgingest.Outcome) {
	if outcome.Status == pgingest.JobFailed {
		s.logger.Error("[%d] %s failed (%s): %v", job.Index, job.Source.Name, outcome.Kind(), outcome.Err)
		return
	}

	created := ""
	if outcome.TableCreated {
		created = ", table created"
	}
	s.logger.Info("[%d] %s: %d rows loaded into %s via %s%s",
		job.Index, job.Source.Name, outcome.Rows, job.Identity, outcome.Strategy, created)
}

var _ pgingest.Ingestor = (*IngestionService)(nil)
