package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"embertv/models"
)

// DefaultGroup is the category assigned to entries without a group-title.
const DefaultGroup = "Other"

// extinfAttrs maps the recognized EXTINF attributes to their defaults.
// M3U attribute syntax in the wild is too irregular for a real grammar,
// so extraction stays regex-based; recognizing a new attribute is one
// line here.
var extinfAttrs = map[string]string{
	"tvg-name":    "",
	"group-title": DefaultGroup,
	"tvg-logo":    "",
}

var (
	attrPatterns = compileAttrPatterns()
	trailingName = regexp.MustCompile(`,([^,]+)$`)
)

func compileAttrPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(extinfAttrs))
	for name := range extinfAttrs {
		patterns[name] = regexp.MustCompile(name + `="([^"]*)"`)
	}
	return patterns
}

// ParseM3U scans raw playlist text and returns the channels in source
// order plus the sorted set of distinct group names. An #EXTINF line is
// paired with the next non-blank line as its stream URL; if that line
// is a comment, or input ends first, the entry is dropped and only the
// #EXTINF line is consumed. Everything else is skipped.
func ParseM3U(content string) ([]models.Channel, []string) {
	var channels []models.Channel
	groups := make(map[string]struct{})

	lines := strings.Split(strings.ReplaceAll(content, "\r", ""), "\n")
	for i := 0; i < len(lines); i++ {
		if !strings.HasPrefix(lines[i], "#EXTINF") {
			continue
		}

		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j >= len(lines) {
			break
		}
		url := strings.TrimSpace(lines[j])
		if strings.HasPrefix(url, "#") {
			// No URL for this entry; the comment line may open the next one.
			continue
		}

		ch := parseExtinf(lines[i], len(channels))
		ch.URL = url
		channels = append(channels, ch)
		groups[ch.Group] = struct{}{}
		i = j
	}

	categories := make([]string, 0, len(groups))
	for g := range groups {
		categories = append(categories, g)
	}
	sort.Strings(categories)
	return channels, categories
}

// parseExtinf extracts one channel's metadata from an #EXTINF line.
// parsed is the number of channels already emitted in this parse call,
// used to synthesize names for entries that carry none.
func parseExtinf(line string, parsed int) models.Channel {
	attrs := make(map[string]string, len(extinfAttrs))
	for name, def := range extinfAttrs {
		attrs[name] = def
		if m := attrPatterns[name].FindStringSubmatch(line); m != nil {
			attrs[name] = m[1]
		}
	}

	name := attrs["tvg-name"]
	if name == "" {
		if m := trailingName.FindStringSubmatch(line); m != nil {
			name = strings.TrimSpace(m[1])
		}
		if name == "" {
			name = fmt.Sprintf("Ch%d", parsed)
		}
	}

	return models.Channel{
		Name:  name,
		Group: attrs["group-title"],
		Logo:  attrs["tvg-logo"],
	}
}
