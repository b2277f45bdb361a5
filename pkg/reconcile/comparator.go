package reconcile

import (
	"context"
	"strings"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/logging"
	"github.com/agentstation/authmatch/pkg/marc"
	"github.com/agentstation/authmatch/pkg/normalize"
)

// ContentSource returns the authority content for an identifier.
// *authority.Cache implements it.
type ContentSource interface {
	Get(ctx context.Context, id string) (authority.Content, error)
}

// Comparator checks one record's subfields against its authority.
type Comparator struct {
	source ContentSource
	policy Policy
}

// NewComparator returns a comparator reading authorities from source.
// A nil policy means containment.
func NewComparator(source ContentSource, policy Policy) *Comparator {
	if policy == nil {
		policy = PolicyContainment()
	}
	return &Comparator{source: source, policy: policy}
}

// Policy returns the comparator's equality policy.
func (c *Comparator) Policy() Policy {
	return c.policy
}

// MissingMarker is the authority value reported for a subfield the
// authority does not carry.
func MissingMarker(code string) string {
	return code + " does not exist in authority"
}

// Compare returns one Discrepancy per inconsistent subfield, in code order.
//
// A record without an authority id, or whose authority has no datafield
// with the compared tag, is reported against an empty authority, so every
// subfield gets the missing marker. Any other failure to obtain the
// authority returns a *errors.ComparisonError and no discrepancies.
func (c *Comparator) Compare(ctx context.Context, rec LocalRecord) ([]Discrepancy, error) {
	auth, err := c.authority(ctx, rec)
	if err != nil {
		return nil, &errors.ComparisonError{BibID: rec.BibID, AuthorityID: rec.AuthorityID, Err: err}
	}

	var out []Discrepancy
	for _, code := range rec.Subfields.Codes() {
		if code == constants.LinkingSubfield {
			continue
		}
		local := normalize.Values(rec.Subfields[code])

		// A code the authority lacks is always a discrepancy; the marker
		// only fills the authority column.
		var want []string
		if auth.Has(code) {
			want = normalize.Values(auth[code])
			if c.policy.Consistent(local, want) {
				continue
			}
		} else {
			want = []string{MissingMarker(code)}
		}
		out = append(out, Discrepancy{
			BibID:     rec.BibID,
			Tag:       rec.Tag,
			Subfield:  code,
			Local:     strings.Join(local, valueSeparator),
			Authority: want,
			Language:  rec.Language,
			Location:  rec.Location,
		})
	}
	return out, nil
}

func (c *Comparator) authority(ctx context.Context, rec LocalRecord) (marc.Subfields, error) {
	if !rec.HasAuthority() {
		logging.FromContext(ctx).Debug().Msg("Record has no authority id")
		return marc.Subfields{}, nil
	}

	content, err := c.source.Get(ctx, rec.AuthorityID)
	switch {
	case err == nil:
		return content.Subfields(), nil
	case errors.IsNotFound(err):
		logging.FromContext(ctx).Debug().Err(err).Msg("Authority not found")
		return marc.Subfields{}, nil
	default:
		return nil, err
	}
}
