// Package config loads the YAML document describing a site's
// Location/Directory/File/If section trees into the types
// internal/pipeline's orchestrator walks against.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/sudip-ibm/httpd/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Document is the top-level shape of the YAML config file.
type Document struct {
	Listen       string        `yaml:"listen"`
	DocumentRoot string        `yaml:"document_root"`
	Options      optionsNode   `yaml:"options"`
	SymLinks     string        `yaml:"sym_links"`
	Satisfy      string        `yaml:"satisfy"`

	// AllowEncodedSlashes/DecodeEncodedSlashes are root-only: C1 runs
	// before any section tree has a chance to apply, so there is no
	// directory-level override to honor here — only the document's own
	// default matters (spec §4.1/§6).
	AllowEncodedSlashes  bool `yaml:"allow_encoded_slashes"`
	DecodeEncodedSlashes bool `yaml:"decode_encoded_slashes"`

	Locations   []sectionNode `yaml:"locations"`
	Directories []sectionNode `yaml:"directories"`
	Files       []sectionNode `yaml:"files"`
	Ifs         []ifNode      `yaml:"ifs"`
}

type optionsNode struct {
	Indexes        bool `yaml:"indexes"`
	FollowSymLinks bool `yaml:"follow_symlinks"`
	ExecCGI        bool `yaml:"exec_cgi"`
	MultiViews     bool `yaml:"multiviews"`
}

// sectionNode is one <Location>/<Directory>/<Files> entry. The optional
// fields use pointers so the loader can tell "the directive was not
// mentioned" (nil, inherit) apart from "the directive was explicitly set
// to its zero value" (non-nil pointing at false/"", override) — the same
// distinction PerDirConfig's "Set" flags track on the pipeline side.
type sectionNode struct {
	Match   string   `yaml:"match"` // prefix/basename form
	Regex   string   `yaml:"regex"` // *Match variant, compiled once at build time
	Indexes []string `yaml:"indexes"`

	Satisfy       *string `yaml:"satisfy"`
	SymLinks      *string `yaml:"sym_links"`
	AllowOverride *bool   `yaml:"allow_override"`
	HiddenFiles   *bool   `yaml:"hidden_files"`
	ForceAuthn    *bool   `yaml:"force_authn"`

	AllowEncodedSlashes  *bool `yaml:"allow_encoded_slashes"`
	DecodeEncodedSlashes *bool `yaml:"decode_encoded_slashes"`

	Require []string `yaml:"require"`
	Realm   string   `yaml:"realm"`
}

type ifNode struct {
	Expr     string   `yaml:"expr"`
	Root     string   `yaml:"root"`
	Else     *ifNode  `yaml:"else"`
	ElseIf   []ifNode `yaml:"else_if"`
	Children []ifNode `yaml:"ifs"`
}

// Load reads and parses a YAML config file from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return &doc, nil
}

func parseSatisfy(s string) pipeline.SatisfyMode {
	if s == "any" {
		return pipeline.SatisfyAny
	}
	return pipeline.SatisfyAll
}

func parseSymLinks(s string) pipeline.SymPolicy {
	switch s {
	case "all":
		return pipeline.SymAllowed
	case "owner_match":
		return pipeline.SymOwnerMatch
	default:
		return pipeline.SymForbidden
	}
}

func (o optionsNode) toOptions() pipeline.OptionsConfig {
	var bits pipeline.OptionBit
	if o.Indexes {
		bits |= pipeline.OptIndexes
	}
	if o.FollowSymLinks {
		bits |= pipeline.OptFollowSymLinks
	}
	if o.ExecCGI {
		bits |= pipeline.OptExecCGI
	}
	if o.MultiViews {
		bits |= pipeline.OptMultiViews
	}
	return pipeline.OptionsConfig{Opts: bits}
}

// Build turns a parsed Document into the four SectionTrees the
// orchestrator needs, compiling every *Match regex and <If> expression
// once up front.
func (d *Document) Build() (root *pipeline.PerDirConfig, locTree, dirTree, fileTree, ifTree *pipeline.SectionTree, err error) {
	root = &pipeline.PerDirConfig{
		Options:              d.Options.toOptions(),
		SymLinks:             parseSymLinks(d.SymLinks),
		Satisfy:              parseSatisfy(d.Satisfy),
		Root:                 d.DocumentRoot,
		AllowEncodedSlashes:  d.AllowEncodedSlashes,
		DecodeEncodedSlashes: d.DecodeEncodedSlashes,
	}

	locNodes, err := buildSimpleSections(d.Locations, pipeline.KindLocation, pipeline.KindLocationMatch)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("building locations: %w", err)
	}
	dirNodes, err := buildSimpleSections(d.Directories, pipeline.KindDirectory, pipeline.KindDirectoryMatch)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("building directories: %w", err)
	}
	fileNodes, err := buildSimpleSections(d.Files, pipeline.KindFiles, pipeline.KindFilesMatch)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("building files: %w", err)
	}

	locTree = &pipeline.SectionTree{Root: root, Nodes: locNodes}
	dirTree = &pipeline.SectionTree{Root: root, Nodes: dirNodes}
	fileTree = &pipeline.SectionTree{Root: root, Nodes: fileNodes}

	ifNodes, err := buildIfSections(d.Ifs)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	ifTree = &pipeline.SectionTree{Root: root, Nodes: ifNodes}
	return root, locTree, dirTree, fileTree, ifTree, nil
}

func buildSimpleSections(nodes []sectionNode, prefixKind, matchKind pipeline.SectionKind) ([]*pipeline.Section, error) {
	out := make([]*pipeline.Section, 0, len(nodes))
	for _, n := range nodes {
		sec := &pipeline.Section{Overlay: sectionOverlay(n)}
		if n.Regex != "" {
			re, err := regexp.Compile(n.Regex)
			if err != nil {
				return nil, fmt.Errorf("compiling regex %q: %w", n.Regex, err)
			}
			sec.Kind = matchKind
			sec.Pattern = n.Regex
			sec.Regex = re
		} else {
			sec.Kind = prefixKind
			sec.Pattern = n.Match
		}
		out = append(out, sec)
	}
	return out, nil
}

func sectionOverlay(n sectionNode) *pipeline.PerDirConfig {
	overlay := &pipeline.PerDirConfig{Options: pipeline.OptionsConfig{Unset: true}, Indexes: n.Indexes}
	if n.Satisfy != nil {
		overlay.Satisfy = parseSatisfy(*n.Satisfy)
		overlay.SatisfySet = true
	}
	if n.SymLinks != nil {
		overlay.SymLinks = parseSymLinks(*n.SymLinks)
		overlay.SymLinksSet = true
	}
	if n.AllowOverride != nil {
		overlay.AllowOverride = *n.AllowOverride
		overlay.AllowOverrideSet = true
	}
	if n.HiddenFiles != nil {
		overlay.HiddenFiles = *n.HiddenFiles
		overlay.HiddenFilesSet = true
	}
	if n.ForceAuthn != nil {
		overlay.ForceAuthn = *n.ForceAuthn
		overlay.ForceAuthnSet = true
	}
	if n.AllowEncodedSlashes != nil {
		overlay.AllowEncodedSlashes = *n.AllowEncodedSlashes
		overlay.AllowEncodedSlashesSet = true
	}
	if n.DecodeEncodedSlashes != nil {
		overlay.DecodeEncodedSlashes = *n.DecodeEncodedSlashes
		overlay.DecodeEncodedSlashesSet = true
	}
	if len(n.Require) > 0 {
		overlay.Auth = &pipeline.AuthRule{Realm: n.Realm, Require: n.Require}
	}
	return overlay
}

func buildIfSections(nodes []ifNode) ([]*pipeline.Section, error) {
	out := make([]*pipeline.Section, 0, len(nodes))
	for _, n := range nodes {
		sec, err := buildIfChain(n)
		if err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, nil
}

func buildIfChain(n ifNode) (*pipeline.Section, error) {
	sec := &pipeline.Section{Kind: pipeline.KindIf, Expr: n.Expr, Overlay: &pipeline.PerDirConfig{Options: pipeline.OptionsConfig{Unset: true}, Root: n.Root}}
	if n.Expr != "" {
		prog, err := pipeline.CompileIf(n.Expr)
		if err != nil {
			return nil, err
		}
		sec.Program = prog
	}
	for _, child := range n.Children {
		childSec, err := buildIfChain(child)
		if err != nil {
			return nil, err
		}
		sec.Children = append(sec.Children, childSec)
	}
	for _, alt := range n.ElseIf {
		altSec, err := buildIfChain(alt)
		if err != nil {
			return nil, err
		}
		sec.Branches = append(sec.Branches, altSec)
	}
	if n.Else != nil {
		elseSec, err := buildIfChain(*n.Else)
		if err != nil {
			return nil, err
		}
		elseSec.Expr = ""
		sec.Branches = append(sec.Branches, elseSec)
	}
	return sec, nil
}
