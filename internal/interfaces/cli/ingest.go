package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/FieldScout-Intelligence/internal/application/ingestion"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// SourceCLI labels ingestions started from the command line.
const SourceCLI = "cli"

type ingestOptions struct {
	fieldID string
	enqueue bool
}

func newIngestCmd(op Opener) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Ingest a scouting flight from a JSON file (- reads stdin)",
		Long: "Runs the flight through the ingestion pipeline and stores the daily record\n" +
			"and its alerts. With --enqueue the flight is published to the ingest topic\n" +
			"for the worker instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			req, err := readRequest(cmd, args[0])
			if err != nil {
				return err
			}
			if opts.fieldID != "" {
				req.FieldID = opts.fieldID
			}
			if opts.enqueue {
				return runEnqueue(cmd, cc, op, req)
			}
			return runIngest(cmd, cc, op, req)
		},
	}
	cmd.Flags().StringVar(&opts.fieldID, "field", "", "override the field_id of the payload")
	cmd.Flags().BoolVar(&opts.enqueue, "enqueue", false, "publish to "+kafka.TopicIngestRequested+" instead of ingesting in-process")
	return cmd
}

func readRequest(cmd *cobra.Command, path string) (*ingestion.IngestRequest, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "cannot open flight file").WithDetail(path)
		}
		defer f.Close()
		r = f
	}

	var req ingestion.IngestRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "flight file is not a valid ingestion request").WithDetail(path)
	}
	req.Source = SourceCLI
	return &req, nil
}

// ingestOutput is the text rendering of an ingestion result.
type ingestOutput struct {
	*ingestion.IngestResult
}

func (o ingestOutput) Text() string {
	s := o.Summary
	return fmt.Sprintf("Ingested %s (record %s)\n", o.Date, o.RecordID) +
		FormatTable(
			[]string{"PESTS", "AVG CANOPY", "ALERTS", "CRITICAL ZONES"},
			[][]string{{fmt.Sprint(s.PestCount), fmt.Sprintf("%.2f", s.AvgCanopy), fmt.Sprint(s.AlertsGenerated), fmt.Sprint(s.CriticalZones)}},
		)
}

func runIngest(cmd *cobra.Command, cc *CLIContext, op Opener, req *ingestion.IngestRequest) error {
	ctx, cancel := cc.withTimeout(cmd.Context())
	defer cancel()

	svc, release, err := op.Ingester(ctx, cc)
	if err != nil {
		return err
	}
	defer release()

	res, err := svc.Ingest(ctx, req)
	if err != nil {
		return err
	}
	cc.Logger.Debug("Ingestion finished", logging.String("record_id", res.RecordID))
	return PrintResult(cmd, ingestOutput{res})
}

// enqueueOutput reports a published ingestion request.
type enqueueOutput struct {
	Status  string `json:"status"`
	EventID string `json:"event_id"`
	Topic   string `json:"topic"`
	FieldID string `json:"field_id"`
}

func (o enqueueOutput) Text() string {
	return fmt.Sprintf("Queued %s for field %s on %s\n", o.EventID, o.FieldID, o.Topic)
}

func runEnqueue(cmd *cobra.Command, cc *CLIContext, op Opener, req *ingestion.IngestRequest) error {
	if strings.TrimSpace(req.FieldID) == "" {
		return errors.NewValidation("field_id is required")
	}
	ctx, cancel := cc.withTimeout(cmd.Context())
	defer cancel()

	env, err := kafka.NewEventEnvelope(kafka.EventIngestRequested, "fieldscout-cli", req)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(kafka.TopicIngestRequested, req.FieldID)
	if err != nil {
		return err
	}

	pub, release, err := op.Publisher(ctx, cc)
	if err != nil {
		return err
	}
	defer release()
	if err := pub.Publish(ctx, msg); err != nil {
		return err
	}
	return PrintResult(cmd, enqueueOutput{Status: "queued", EventID: env.EventID, Topic: msg.Topic, FieldID: req.FieldID})
}

//Personal.AI order the ending
