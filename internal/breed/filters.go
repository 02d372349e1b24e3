package breed

import (
	"context"
	"strconv"
	"strings"

	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
)

func filterDescriptors() []op.Descriptor {
	return []op.Descriptor{
		{
			Name:  "unique",
			Kind:  op.KindFilter,
			Apply: unique,
		},
	}
}

// unique drops individuals whose genome duplicates an earlier one in the
// stream. Order is preserved.
func unique(_ context.Context, _ *op.Runtime, in []*model.Individual, _ int, _ op.Args) ([]*model.Individual, error) {
	seen := make(map[string]bool, len(in))
	out := make([]*model.Individual, 0, len(in))
	for _, ind := range in {
		key := genomeKey(ind.Genome)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ind.Clone())
	}
	return out, nil
}

func genomeKey(g model.Genome) string {
	var sb strings.Builder
	sb.WriteString(string(g.Kind))
	switch g.Kind {
	case model.KindBinary:
		for _, bit := range g.Bits {
			if bit {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	case model.KindReal:
		for _, v := range g.Reals {
			sb.WriteByte('|')
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	default:
		for _, v := range g.Ints {
			sb.WriteByte('|')
			sb.WriteString(strconv.FormatInt(v, 10))
		}
	}
	return sb.String()
}
