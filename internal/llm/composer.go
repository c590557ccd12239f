package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/outfitter/internal/models"
)

// FallbackMessage is the reply when no record could be offered.
const FallbackMessage = "I couldn't find an outfit that fits that request yet. Try describing the occasion, a garment or a color you have in mind."

// Persona is the voice of an expert role.
type Persona struct {
	Role        models.ExpertRole
	Title       string
	Instruction string
}

var personas = map[models.ExpertRole]Persona{
	models.RoleStyleAnalyst: {
		Role:  models.RoleStyleAnalyst,
		Title: "Style analyst",
		Instruction: "You are a style analyst.\n" +
			"Explain how the outfit is put together: how each piece is worn, the tuck, the fit details and the balance of the silhouette. " +
			"Give two concrete tips the user can copy.",
	},
	models.RoleTrendExpert: {
		Role:  models.RoleTrendExpert,
		Title: "Trend expert",
		Instruction: "You are a fashion trend expert.\n" +
			"Place the outfit in current trends, say which pieces make it feel fresh and how to keep it from looking dated.",
	},
	models.RoleColorExpert: {
		Role:  models.RoleColorExpert,
		Title: "Color expert",
		Instruction: "You are a color expert.\n" +
			"Talk about the palette of the outfit, why the colors work together and which alternative colors would keep the harmony.",
	},
	models.RoleFittingCoordinator: {
		Role:  models.RoleFittingCoordinator,
		Title: "Fitting coordinator",
		Instruction: "You are a fitting coordinator.\n" +
			"Focus on the fit and proportions of each garment and how to adjust sizes or lengths for a cleaner line.",
	},
}

const sharedInstruction = "\n\nAnswer the user's request using only the outfit described. Keep it under 120 words, friendly and specific. Do not invent garments that are not listed."

// PersonaFor returns the persona for role, defaulting to the style analyst.
func PersonaFor(role models.ExpertRole) Persona {
	if p, ok := personas[role]; ok {
		return p
	}
	return personas[models.RoleStyleAnalyst]
}

// Composer turns a match result into a reply in the voice of its expert role.
type Composer struct {
	gen    TextGenerator
	logger *zap.Logger
}

// NewComposer creates a Composer. gen may be nil, in which case replies are built
// from the record alone.
func NewComposer(gen TextGenerator, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{gen: gen, logger: logger}
}

// Compose returns the reply for result. Generation failures fall back to a plain
// description of the record and are not returned as errors.
func (c *Composer) Compose(ctx context.Context, result *models.MatchResult, request string) string {
	if result == nil || !result.Found || result.Record == nil {
		return FallbackMessage
	}
	persona := PersonaFor(result.Role)
	description := DescribeRecord(result.Record)
	if c.gen == nil {
		return persona.Title + ": " + description
	}

	user := fmt.Sprintf("Request: %s\n\nOutfit:\n%s", request, description)
	reply, err := c.gen.Generate(ctx, persona.Instruction+sharedInstruction, user)
	if err != nil {
		c.logger.Warn("response generation failed",
			zap.String("record_id", result.Record.ID),
			zap.String("role", string(persona.Role)),
			zap.Error(err))
		return persona.Title + ": " + description
	}
	return reply
}

// DescribeRecord renders the structured attributes of rec as plain lines.
func DescribeRecord(rec *models.OutfitRecord) string {
	var b strings.Builder
	for _, slot := range models.Slots {
		g, ok := rec.Garment(slot)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", slot, describeGarment(g))
	}
	dims := rec.StylingDimensions()
	if len(dims) > 0 {
		parts := make([]string, 0, len(dims))
		for _, d := range dims {
			parts = append(parts, strings.ReplaceAll(d, "_", " ")+": "+rec.StylingMethod[d])
		}
		fmt.Fprintf(&b, "- styling: %s\n", strings.Join(parts, "; "))
	}
	tags := append([]string(nil), rec.EffectiveTags()...)
	sort.Strings(tags)
	fmt.Fprintf(&b, "- occasions: %s", strings.Join(tags, ", "))
	return b.String()
}

func describeGarment(g models.GarmentAttributes) string {
	var words []string
	if g.Color != "" {
		words = append(words, g.Color)
	}
	if g.Material != "" {
		words = append(words, g.Material)
	}
	if g.Name != "" {
		words = append(words, g.Name)
	}
	s := strings.Join(words, " ")
	if g.Fit != "" {
		s += " (" + g.Fit + " fit)"
	}
	return s
}
