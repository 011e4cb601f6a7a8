// internal/service/template_service.go
package service

import (
	"strconv"
	"strings"

	"github.com/unclebandit/churn-etl/internal/model"
)

const (
	DefaultSuccessTemplate = "Pipeline {pipeline_name} run id={run_id} completed successfully! Rows loaded: {rows_loaded}"
	DefaultFailureTemplate = "Pipeline {pipeline_name} run id={run_id} failed in task {failing_task}!"
)

func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// RenderOutcome picks the success or failure template for o and fills it in.
// Empty placeholders render as <unknown>.
func RenderOutcome(o *model.RunOutcome, successTemplate, failureTemplate string) string {
	template := successTemplate
	if !o.Succeeded() {
		template = failureTemplate
	}

	data := map[string]string{
		"pipeline_name":  o.PipelineName,
		"run_id":         o.RunID,
		"outcome":        string(o.Outcome),
		"failing_task":   o.FailingTask,
		"error":          o.Error,
		"rows_extracted": strconv.Itoa(o.RowsExtracted),
		"rows_loaded":    strconv.Itoa(o.RowsLoaded),
	}
	for k, v := range data {
		if v == "" {
			data[k] = "<unknown>"
		}
	}
	return RenderTemplate(template, data)
}
