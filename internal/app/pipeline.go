package app

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"dhis2-tool/internal/config"
	"dhis2-tool/internal/describe"
	"dhis2-tool/internal/dhis2"
	"dhis2-tool/internal/format"
	"dhis2-tool/internal/httpclient"
	"dhis2-tool/internal/logging"
)

// defaultPipelineFactory builds the real fetch pipeline from resolved
// credentials.
type defaultPipelineFactory struct{}

func (f *defaultPipelineFactory) New(creds *config.Credentials, httpCfg config.HTTPSettings) (pipeline, error) {
	httpClient, err := httpclient.New(creds, httpCfg)
	if err != nil {
		return nil, err
	}
	return &fetchPipeline{client: dhis2.NewClient(httpClient, creds)}, nil
}

// fetchPipeline resolves groups and turns their indicators into rows.
type fetchPipeline struct {
	client *dhis2.Client
}

// Run executes one sequential fetch: resolve group ids, then per group fetch
// membership and produce one row per indicator. Any failure is terminal; no
// partial output is emitted.
func (p *fetchPipeline) Run(ctx context.Context, job Job) ([]*format.Row, error) {
	ids, err := p.client.ResolveGroupIDs(ctx, job.GroupIDs, job.GroupDesc)
	if err != nil {
		return nil, err
	}

	var describer *describe.Describer
	if !job.Raw {
		describer, err = describe.New(ctx, p.client, p.client.BaseURL())
		if err != nil {
			return nil, err
		}
	}

	var rows []*format.Row
	for _, id := range ids {
		group, err := p.client.Group(ctx, id)
		if err != nil {
			return nil, err
		}
		logging.Logf(logging.Info, "Group '%s' has %d %s", group.DisplayName, len(group.ElementIDs), group.ElementType)

		var groupRows []*format.Row
		if job.Raw {
			groupRows, err = p.rawRows(ctx, group)
		} else {
			describer.SetGroup(group)
			groupRows, err = describer.DescribeAll(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch indicators for group '%s': %w", id, err)
		}
		rows = append(rows, groupRows...)
	}
	return rows, nil
}

// rawRows emits each group member's metadata fields untouched: one row per
// element, field set exactly what the API returned, nested values as raw
// JSON text.
func (p *fetchPipeline) rawRows(ctx context.Context, group *dhis2.Group) ([]*format.Row, error) {
	rows := make([]*format.Row, 0, len(group.ElementIDs))
	for _, id := range group.ElementIDs {
		element, err := p.client.Element(ctx, group.ElementType, id)
		if err != nil {
			return nil, err
		}
		row := format.NewRow()
		element.ForEach(func(key, value gjson.Result) bool {
			if value.IsObject() || value.IsArray() {
				row.Set(key.String(), value.Raw)
			} else {
				row.Set(key.String(), value.String())
			}
			return true
		})
		rows = append(rows, row)
	}
	return rows, nil
}
