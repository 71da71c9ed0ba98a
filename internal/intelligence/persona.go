package intelligence

import (
	"context"

	"go.uber.org/zap"
)

// Persona tags carried on hints. The default tag for untagged hints is
// constants.DefaultPersona.
const (
	PersonaSeniorDev = "SeniorDev"
	PersonaJuniorDev = "JuniorDev"
	PersonaCEO       = "CEO"
	PersonaAgent     = "Agent"
)

// TargetPersonas are the audiences sibling variants get generated for
var TargetPersonas = []string{PersonaSeniorDev, PersonaJuniorDev, PersonaCEO, PersonaAgent}

type rephrased struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GeneratePersonaVariants walks hints that have no persona siblings yet and
// mints one rephrased sibling per missing target persona, each with its own
// embedding so persona-scoped lookups hit directly.
//
// Failures on one hint or one persona are logged and skipped; the pass is a
// background enrichment job and should cover as much as it can. Returns the
// number of variants created.
func (c *Cache) GeneratePersonaVariants(ctx context.Context) (int, error) {
	hints, err := c.store.HintsWithoutSiblings(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, hint := range hints {
		existing := map[string]bool{hint.Persona: true}
		siblings, err := c.store.HintSiblings(ctx, hint.RefID)
		if err != nil {
			c.logger.Error("Failed to load hint siblings",
				zap.String("ref_id", hint.RefID), zap.Error(err))
			continue
		}
		for _, s := range siblings {
			existing[s.Persona] = true
		}

		for _, persona := range TargetPersonas {
			if existing[persona] {
				continue
			}
			if ctx.Err() != nil {
				return created, ctx.Err()
			}
			if err := c.createVariant(ctx, hint.RefID, hint.Question, hint.Body, persona); err != nil {
				c.logger.Error("Failed to create persona variant",
					zap.String("ref_id", hint.RefID),
					zap.String("persona", persona),
					zap.Error(err),
				)
				continue
			}
			created++
		}
	}

	c.logger.Info("Persona variant pass complete",
		zap.Int("hints", len(hints)), zap.Int("created", created))
	return created, nil
}

func (c *Cache) createVariant(ctx context.Context, originalRefID, question, answer, persona string) error {
	var out rephrased
	if err := c.llm.CompleteJSON(ctx, rephrasePrompt(question, answer, persona), &out); err != nil {
		return err
	}
	if out.Question == "" || out.Answer == "" {
		out.Question = question
		out.Answer = answer
	}

	embedding, err := c.embedder.Embed(ctx, out.Question)
	if err != nil {
		return err
	}

	refID, err := c.store.CreateHint(ctx, out.Question, out.Answer, embedding, persona)
	if err != nil {
		return err
	}
	return c.store.CreateSiblingEdge(ctx, originalRefID, refID)
}
