// Package render turns structured alert drafts into the human-readable
// message and multi-step recommendation stored with each alert, and draws
// density grids as PNG heat maps.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/turtacn/FieldScout-Intelligence/internal/domain/alert"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

type alertTemplate struct {
	icon           string
	message        string
	recommendation string
}

var templates = map[alert.Type]alertTemplate{
	alert.TypeCombinedRisk: {
		icon:    "⚠️",
		message: `URGENT: {{crop .crop_type}} crop under dual stress in {{.zone_id}}`,
		recommendation: `Immediate action required:
1. Apply targeted pesticide for {{crop .crop_type}} pests ({{.pest_count}} detected)
2. Increase irrigation now, canopy at {{pct .canopy_cover}}%
3. Monitor daily for the next 3-5 days
4. Consider a soil nutrient analysis`,
	},
	alert.TypePestOutbreak: {
		icon:    "🐛",
		message: `Pest outbreak: {{crop .crop_type}} zone {{.zone_id}} needs attention`,
		recommendation: `Pest control action:
1. Apply {{crop .crop_type}}-specific pesticide to {{.zone_id}}
2. Inspect neighbouring zones for spread
3. Document the pest species if possible
4. Re-scan in 48 hours to verify treatment`,
	},
	alert.TypeCanopyStress: {
		icon:    "🌱",
		message: `Canopy stress: {{crop .crop_type}} health declining in {{.zone_id}}`,
		recommendation: `Irrigation and nutrition action:
1. Check irrigation coverage in {{.zone_id}} (current: {{pct .canopy_cover}}%)
2. Verify soil moisture levels
3. Consider nitrogen or nutrient supplementation
4. Inspect for disease or root damage`,
	},
	alert.TypePestWarning: {
		icon:    "👀",
		message: `Monitor: {{crop .crop_type}} pest activity increasing in {{.zone_id}}`,
		recommendation: `Monitoring recommendation:
1. Inspect {{.zone_id}} for {{crop .crop_type}} pests ({{.pest_count}} detected)
2. Prepare pesticide equipment in case the count rises
3. Check this zone again in 2-3 days
4. Document pest species and behaviour`,
	},
	alert.TypeIrrigationNeeded: {
		icon:    "💧",
		message: `Irrigation alert: low canopy in {{.zone_id}} ({{pct .canopy_cover}}%)`,
		recommendation: `Irrigation action:
1. Increase water delivery to {{.zone_id}}
2. Current canopy: {{pct .canopy_cover}}% (target: >{{pct .target_canopy}}%)
3. Check the irrigation system for blockages
4. Monitor soil moisture daily`,
	},
	alert.TypeCropOutbreak: {
		icon:    "🌾",
		message: `{{crop .crop_type}} alert: field-wide pest concentration detected`,
		recommendation: `Field-wide strategy:
1. {{crop .crop_type}} is the primary pest target ({{.pest_count}} of {{.total_pests}} total)
2. Consider field-wide {{crop .crop_type}}-specific treatment
3. Review the {{crop .crop_type}} planting strategy for next season
4. Monitor all {{crop .crop_type}} zones closely`,
	},
}

var funcs = template.FuncMap{
	"crop": capitalize,
	"pct":  oneDecimal,
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(v interface{}) string {
	s := strings.ToLower(fmt.Sprint(v))
	if v == nil || s == "" {
		return "Unknown"
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func oneDecimal(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return fmt.Sprintf("%.1f", n)
	case float32:
		return fmt.Sprintf("%.1f", n)
	case int:
		return fmt.Sprintf("%.1f", float64(n))
	case int64:
		return fmt.Sprintf("%.1f", float64(n))
	default:
		return fmt.Sprint(v)
	}
}

type compiled struct {
	icon           string
	message        *template.Template
	recommendation *template.Template
}

// Renderer renders alert text. It is safe for concurrent use.
type Renderer struct {
	templates map[alert.Type]compiled
	icons     bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithIcons prefixes messages with a per-type emoji marker.
func WithIcons(enabled bool) Option {
	return func(r *Renderer) { r.icons = enabled }
}

// New parses the alert templates.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{templates: make(map[alert.Type]compiled, len(templates))}
	for _, o := range opts {
		o(r)
	}
	for typ, t := range templates {
		msg, err := template.New(string(typ) + ".message").Funcs(funcs).Parse(t.message)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAlertTemplateFailed, "parse message template for "+string(typ))
		}
		rec, err := template.New(string(typ) + ".recommendation").Funcs(funcs).Parse(t.recommendation)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAlertTemplateFailed, "parse recommendation template for "+string(typ))
		}
		r.templates[typ] = compiled{icon: t.icon, message: msg, recommendation: rec}
	}
	return r, nil
}

// Render returns the message and recommendation for d.
func (r *Renderer) Render(d alert.Draft) (message, recommendation string, err error) {
	t, ok := r.templates[d.Type]
	if !ok {
		return "", "", errors.Newf(errors.ErrCodeAlertTemplateFailed, "no template for alert type %q", d.Type)
	}

	data := make(map[string]interface{}, len(d.Metrics)+1)
	for k, v := range d.Metrics {
		data[k] = v
	}
	data["zone_id"] = d.ZoneID

	var buf bytes.Buffer
	if err := t.message.Execute(&buf, data); err != nil {
		return "", "", errors.Wrap(err, errors.ErrCodeAlertTemplateFailed, "render message")
	}
	message = buf.String()
	buf.Reset()
	if err := t.recommendation.Execute(&buf, data); err != nil {
		return "", "", errors.Wrap(err, errors.ErrCodeAlertTemplateFailed, "render recommendation")
	}
	recommendation = buf.String()

	if r.icons && t.icon != "" {
		message = t.icon + " " + message
		recommendation = "🎯 " + recommendation
	}
	return message, recommendation, nil
}

// Alerts renders every draft into an active alert for the field and date.
func (r *Renderer) Alerts(fieldID, date string, ts time.Time, drafts []alert.Draft) ([]*alert.Alert, error) {
	out := make([]*alert.Alert, 0, len(drafts))
	for _, d := range drafts {
		msg, rec, err := r.Render(d)
		if err != nil {
			return nil, err
		}
		out = append(out, alert.New(fieldID, date, ts, d, msg, rec))
	}
	return out, nil
}

//Personal.AI order the ending
