// Package ingest pulls raw main-engine telemetry from the vessel DAS export
// endpoint. The export is windowed: one signed SQL query per window, CSV
// back, windows concatenated. A failed window is logged and skipped so a
// flaky shore link does not abort a multi-month fetch.
package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oceanlens/enginewatch/pkg/config"
	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/oceanlens/enginewatch/pkg/logger/log"
	"github.com/oceanlens/enginewatch/pkg/metrics"
	"github.com/oceanlens/enginewatch/pkg/model"
)

// tokenSalt is the shared secret appended before hashing; it must match the
// DAS gateway configuration.
const tokenSalt = "mnzxvy&h$B)(KUI+7b5b670%6klkjbB=lkasjdf"

// dasCodes maps export headers to the raw DAS packet field queried for them.
var dasCodes = map[string]string{
	"ME COPT COND CSW IN TEMP":         "AM419",
	"ME CYL. L.O IN TEMP.":             "AM337",
	"ME EXH. GAS OUT TEMP.CYL. NO.1":   "AM21",
	"ME EXH. GAS OUT TEMP.CYL. NO.2":   "AM22",
	"ME EXH. GAS OUT TEMP.CYL. NO.3":   "AM23",
	"ME EXH. GAS OUT TEMP.CYL. NO.4":   "AM24",
	"ME EXH. GAS OUT TEMP.CYL. NO.5":   "AM25",
	"ME EXH. GAS OUT TEMP.CYL. NO.6":   "AM26",
	"ME T/C 1 EXH. GAS IN TEMP.":       "AM96",
	"ME T/C 1  EXH. GAS OUT TEMP.":     "AM32",
	"ME F.O IN PRESS":                  "AM01",
	"ME F.O. IN TEMP.":                 "AM64",
	"ME J.C.W OUT HIGH TEMP SLD.CYL.1": "AM552",
	"ME J.C.W OUT HIGH TEMP SLD.CYL.2": "AM553",
	"ME J.C.W OUT HIGH TEMP SLD.CYL.3": "AM554",
	"ME J.C.W OUT HIGH TEMP SLD.CYL.4": "AM555",
	"ME J.C.W OUT HIGH TEMP SLD.CYL.5": "AM556",
	"ME J.C.W OUT HIGH TEMP SLD.CYL.6": "AM557",
	"ME J.C.W IN PRESS":                "AM300",
	"ME L.O IN PRESS":                  "AM50",
	"ME L.O IN TEMP.":                  "AM336",
	"SCAV. AIR PRESS IN AIR RECEIVER":  "AM272",
	"ME SCAV. AIR TEMP.  IN SCAV.":     "AM352",
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.1 SLD": "AM542",
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.2 SLD": "AM543",
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.3 SLD": "AM544",
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.4 SLD": "AM545",
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.5 SLD": "AM546",
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.6 SLD": "AM547",
	"ME SHAFT POWER": "AM267",
	"ME RPM":         "AM20",
}

// Client fetches telemetry windows from the DAS endpoint.
type Client struct {
	cfg  *config.IngestionConfig
	http *http.Client

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Report summarizes one fetch.
type Report struct {
	Windows       int `json:"windows"`
	FailedWindows int `json:"failed_windows"`
	Rows          int `json:"rows"`
}

func NewClient(cfg *config.IngestionConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 5 * time.Minute},
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

type exportRequest struct {
	VesselName  string `json:"vessel_name"`
	ClientName  string `json:"client_name"`
	Token       string `json:"token"`
	Query       string `json:"query"`
	UploadToGCP bool   `json:"upload_to_gcp"`
}

// Fetch walks the configured date range in fixed windows and concatenates
// the per-window CSV exports into one frame.
func (c *Client) Fetch(ctx context.Context) (*frame.Frame, *Report, error) {
	start, err := time.Parse("2006-01-02", c.cfg.StartDate)
	if err != nil {
		return nil, nil, errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessagef("invalid ingestion start date %q", c.cfg.StartDate).
			WithError(err)
	}
	end, err := time.Parse("2006-01-02", c.cfg.EndDate)
	if err != nil {
		return nil, nil, errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessagef("invalid ingestion end date %q", c.cfg.EndDate).
			WithError(err)
	}

	report := &Report{}
	var combined *frame.Frame
	step := c.cfg.GetWindow()

	for cur := start; cur.Before(end); cur = cur.Add(step) {
		winEnd := cur.Add(step - time.Second)
		if winEnd.After(end) {
			winEnd = end
		}
		report.Windows++

		log.Infof("fetching telemetry window %s to %s",
			cur.Format("2006-01-02 15:04:05"), winEnd.Format("2006-01-02 15:04:05"))

		win, err := c.fetchWindow(ctx, cur, winEnd)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			report.FailedWindows++
			metrics.IngestRequestCnt.WithLabelValues("error").Inc()
			log.Warnf("telemetry window %s failed, skipping: %v", cur.Format("2006-01-02"), err)
		} else {
			metrics.IngestRequestCnt.WithLabelValues("ok").Inc()
			metrics.IngestRowsFetched.Add(float64(win.Len()))
			if combined == nil {
				combined = win
			} else {
				combined, err = combined.Concat(win)
				if err != nil {
					return nil, nil, err
				}
			}
		}

		if err := c.sleep(ctx, c.cfg.GetRequestDelay()); err != nil {
			return nil, nil, err
		}
	}

	if combined == nil {
		return nil, nil, errors.NewError().
			WithCode(errors.CodeIngestionError).
			WithMessage("every telemetry window failed, no data fetched")
	}
	report.Rows = combined.Len()
	log.Infof("fetched %d rows across %d windows (%d failed)",
		report.Rows, report.Windows, report.FailedWindows)
	return combined, report, nil
}

func (c *Client) fetchWindow(ctx context.Context, start, end time.Time) (*frame.Frame, error) {
	query := buildQuery(c.cfg.VesselID, start, end, c.cfg.GetRowLimit())
	body, err := json.Marshal(exportRequest{
		VesselName:  c.cfg.VesselName,
		ClientName:  c.cfg.TenantName,
		Token:       signQuery(c.cfg.TenantName, c.cfg.VesselName, query),
		Query:       query,
		UploadToGCP: false,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("from-api", "true")
	req.Header.Set("X-tenant-id", c.cfg.TenantName)
	req.Header.Set("x-request-id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeRemoteServiceError).
			WithMessage("export request failed").
			WithError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewError().
			WithCode(errors.CodeRemoteServiceError).
			WithMessagef("export returned status %d", resp.StatusCode)
	}
	return frame.ParseCSV(resp.Body, model.ChanDataTime)
}

// signQuery derives the request token the gateway verifies: a sha256 over
// the request identity, the query and the shared salt.
func signQuery(tenantName, vesselName, query string) string {
	payload := fmt.Sprintf("client_name_%s_vessel_name_%s_upload_to_gcp_%s_query_%s_salt_%s",
		tenantName, vesselName, "false", query, tokenSalt)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// buildQuery renders the windowed export SQL for the channels the pipeline
// consumes. Column order is deterministic.
func buildQuery(vesselID int, start, end time.Time, rowLimit int) string {
	headers := make([]string, 0, len(dasCodes))
	for h := range dasCodes {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	var sb strings.Builder
	sb.WriteString("SELECT\n")
	sb.WriteString("    name AS \"vesselName\",\n")
	sb.WriteString("    to_char(packettime, 'yyyy/mm/DD HH24:MI:SS') AS \"dataTime\"")
	for _, h := range headers {
		fmt.Fprintf(&sb, ",\n    (packetdata ->> '%s') AS \"%s\"", dasCodes[h], h)
	}
	sb.WriteString("\nFROM\n    shipping_db.highfrequencydata_temp\n")
	sb.WriteString("JOIN\n    shipping_db.ship\n")
	sb.WriteString("ON\n    shipping_db.highfrequencydata_temp.vesselid = shipping_db.ship.id\n")
	fmt.Fprintf(&sb, "WHERE\n    vesselid IN (%d)\n", vesselID)
	fmt.Fprintf(&sb, "    AND packettime BETWEEN '%s' AND '%s'\n",
		start.Format("2006-01-02 15:04:05"), end.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "ORDER BY\n    packettime ASC\nLIMIT %d", rowLimit)
	return sb.String()
}
