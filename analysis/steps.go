// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/lexgraph/ai"
	"github.com/poiesic/lexgraph/core"
	"github.com/poiesic/lexgraph/workflow"
)

// Intermediate keys written by the analytic steps and read by compile.
const (
	keySummary         = "summary"
	keyKeyPoints       = "key_points"
	keyLegalIssues     = "legal_issues"
	keyEntities        = "entities"
	keyRecommendations = "recommendations"
	keyRisk            = "risk"
)

// complete sends one analytic prompt to the language model. An LLM failure
// is advisory: the step leaves its field unset and the run continues, so a
// flaky model degrades the analysis instead of killing it.
func (p *Pipeline) complete(ctx context.Context, s *workflow.State, step, system string) (string, bool) {
	response, err := p.provider.ChatModel().Complete(ctx, ai.CompletionRequest{
		System:   system,
		Messages: []ai.Message{{Role: ai.RoleUser, Content: s.DocumentContent}},
	})
	if err != nil {
		p.logger.Warn("model call failed, field left unset", "run", s.RunID, "step", step, "err", err)
		s.Warn(core.ErrorInfo{
			Kind:       core.ErrorExternalService,
			Message:    fmt.Sprintf("language model call failed: %v", err),
			SourceStep: step,
		})
		return "", false
	}
	return response, true
}

// warnParse records a degraded parse without stopping the run.
func (p *Pipeline) warnParse(s *workflow.State, step, detail string) {
	s.Warn(core.ErrorInfo{
		Kind:       core.ErrorParse,
		Message:    detail,
		SourceStep: step,
	})
}

func (p *Pipeline) summarize(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	if !s.Scope.Includes(core.ScopeSummary) {
		return s, nil
	}
	if response, ok := p.complete(ctx, s, stepSummarize, summaryPrompt); ok {
		s.Intermediate[keySummary] = strings.TrimSpace(response)
	}
	return s, nil
}

func (p *Pipeline) keyPoints(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	if !s.Scope.Includes(core.ScopeKeyPoints) {
		return s, nil
	}
	response, ok := p.complete(ctx, s, stepKeyPoints, keyPointsPrompt)
	if !ok {
		return s, nil
	}

	points, parsed := ParseList(response)
	if !parsed {
		p.warnParse(s, stepKeyPoints, "key points response had no list structure, kept raw text")
	}
	s.Intermediate[keyKeyPoints] = points
	return s, nil
}

func (p *Pipeline) legalIssues(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	if !s.Scope.Includes(core.ScopeLegalIssues) {
		return s, nil
	}
	response, ok := p.complete(ctx, s, stepLegalIssues, legalIssuesPrompt)
	if !ok {
		return s, nil
	}

	issues, parsed := ParseList(response)
	if !parsed {
		p.warnParse(s, stepLegalIssues, "legal issues response had no list structure, kept raw text")
	}
	s.Intermediate[keyLegalIssues] = issues
	return s, nil
}

func (p *Pipeline) entities(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	if !s.Scope.Includes(core.ScopeEntities) {
		return s, nil
	}
	response, ok := p.complete(ctx, s, stepEntities, entitiesPrompt)
	if !ok {
		return s, nil
	}

	entities, found := ParseEntities(response)
	if !found {
		p.warnParse(s, stepEntities, "entity response matched no category, result is empty")
	}
	s.Intermediate[keyEntities] = entities
	return s, nil
}

func (p *Pipeline) recommendations(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	if !s.Scope.Includes(core.ScopeRecommendations) {
		return s, nil
	}

	// Earlier analytic output sharpens the recommendations when present,
	// but the step must work from the document alone.
	prompt := recommendationsPrompt
	if summary, ok := s.Intermediate[keySummary].(string); ok && summary != "" {
		prompt += "\n\nContext from prior analysis:\n" + summary
	}

	response, ok := p.complete(ctx, s, stepRecommendations, prompt)
	if !ok {
		return s, nil
	}

	recs, parsed := ParseList(response)
	if !parsed {
		p.warnParse(s, stepRecommendations, "recommendations response had no list structure, kept raw text")
	}
	s.Intermediate[keyRecommendations] = recs
	return s, nil
}

func (p *Pipeline) risk(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	if !s.Scope.Includes(core.ScopeRisk) {
		return s, nil
	}
	response, ok := p.complete(ctx, s, stepRisk, riskPrompt)
	if !ok {
		return s, nil
	}

	level := ParseRiskLevel(response)
	if level == core.RiskUnknown {
		p.warnParse(s, stepRisk, "risk response carried no recognizable label")
	}
	s.Intermediate[keyRisk] = level
	return s, nil
}

// compile folds the intermediate fields into the final AnalysisResult.
// It always runs, so a partially failed run still yields whatever the
// analytic steps produced.
func (p *Pipeline) compile(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	result := &core.AnalysisResult{GeneratedAt: time.Now().UTC()}

	if summary, ok := s.Intermediate[keySummary].(string); ok {
		result.Summary = summary
	}
	if points, ok := s.Intermediate[keyKeyPoints].([]string); ok {
		result.KeyPoints = points
	}
	if issues, ok := s.Intermediate[keyLegalIssues].([]string); ok {
		result.LegalIssues = issues
	}
	if entities, ok := s.Intermediate[keyEntities].(map[string][]string); ok {
		result.Entities = entities
	}
	if recs, ok := s.Intermediate[keyRecommendations].([]string); ok {
		result.Recommendations = recs
	}
	if level, ok := s.Intermediate[keyRisk].(core.RiskLevel); ok {
		result.Risk = level
	}

	s.Analysis = result
	return s, nil
}

// handleError is the terminal failure step. It reports the captured fault
// and, when the run died before compile, folds whatever the analytic steps
// finished so the failed run still carries its partial output.
func (p *Pipeline) handleError(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	if s.Err != nil {
		p.logger.Error("analysis run failed",
			"run", s.RunID, "kind", s.Err.Kind.String(), "step", s.Err.SourceStep, "msg", s.Err.Message)
	}
	if s.Analysis == nil {
		return p.compile(ctx, s)
	}
	return s, nil
}
