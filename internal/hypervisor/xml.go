package hypervisor

import (
	"fmt"
	"os"
	"regexp"
)

var (
	nameTagRe    = regexp.MustCompile(`<name>[^<]*</name>`)
	diskSourceRe = regexp.MustCompile(`<source\s+file="([^"]*)"`)
)

// renderDomainXML rewrites a libvirt domain XML template's <name> element
// and backing-disk <source file=...> to match spec's clone-specific name
// and overlay -- the regex-based substitution the classic kvm path uses
// instead of a full XML parser, since only these two fields ever change
// between a template and one of its clones.
func renderDomainXML(xmlPath string, spec DomainSpec) (string, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return "", err
	}

	out := nameTagRe.ReplaceAllString(string(data), "<name>"+spec.Name+"</name>")
	out = diskSourceRe.ReplaceAllString(out, `<source file="`+spec.OverlayPath+`"`)
	return out, nil
}

// ExtractDiskSource returns the backing disk path a domain XML template
// declares, the value the classic kvm path treats as its base image when
// synthesizing an overlay (§4.F).
func ExtractDiskSource(xmlPath string) (string, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return "", err
	}
	m := diskSourceRe.FindStringSubmatch(string(data))
	if m == nil {
		return "", fmt.Errorf("no <source file=...> disk declaration found in %s", xmlPath)
	}
	return m[1], nil
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
