// Package prompts 管理邮件管线使用的五个聊天模板（eino ChatTemplate），支持从目录加载 YAML 覆盖
package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"gopkg.in/yaml.v3"
)

// 模板名
const (
	Planner   = "planner"
	Draft     = "draft"
	Tone      = "tone"
	Translate = "translate"
	Proofread = "proofread"
)

// Names 所有模板名（固定顺序）
var Names = []string{Planner, Draft, Tone, Translate, Proofread}

// Definition 单个模板定义；YAML 覆盖文件使用同样的字段
type Definition struct {
	Name   string `yaml:"name"`
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Set 一组已编译的模板
type Set struct {
	defs      map[string]Definition
	templates map[string]prompt.ChatTemplate
}

// Default 只包含内置模板的 Set
func Default() *Set {
	s, err := newSet(builtins())
	if err != nil {
		panic(err)
	}
	return s
}

// Load 加载内置模板并应用 dir 下的 <name>.yaml 覆盖；dir 为空或不存在时只用内置模板
func Load(dir string) (*Set, error) {
	defs := builtins()
	overrides, err := loadOverrides(dir)
	if err != nil {
		return nil, err
	}
	for _, d := range overrides {
		defs[d.Name] = d
	}
	return newSet(defs)
}

func newSet(defs map[string]Definition) (*Set, error) {
	s := &Set{defs: defs, templates: make(map[string]prompt.ChatTemplate, len(defs))}
	for name, d := range defs {
		if err := validate(d); err != nil {
			return nil, err
		}
		msgs := make([]schema.MessagesTemplate, 0, 2)
		if strings.TrimSpace(d.System) != "" {
			msgs = append(msgs, schema.SystemMessage(d.System))
		}
		msgs = append(msgs, schema.UserMessage(d.User))
		s.templates[name] = prompt.FromMessages(schema.GoTemplate, msgs...)
	}
	return s, nil
}

// Template 按名称获取模板
func (s *Set) Template(name string) (prompt.ChatTemplate, error) {
	t, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}
	return t, nil
}

// MustTemplate 获取模板，不存在时 panic；仅用于内置名称
func (s *Set) MustTemplate(name string) prompt.ChatTemplate {
	t, err := s.Template(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Definition 返回模板原文
func (s *Set) Definition(name string) (Definition, bool) {
	d, ok := s.defs[name]
	return d, ok
}

func known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

func validate(d Definition) error {
	if !known(d.Name) {
		return fmt.Errorf("unknown prompt %q (known: %s)", d.Name, strings.Join(Names, ", "))
	}
	if strings.TrimSpace(d.User) == "" {
		return fmt.Errorf("prompt %s: user template is empty", d.Name)
	}
	for part, text := range map[string]string{"system": d.System, "user": d.User} {
		if _, err := template.New(d.Name + "." + part).Parse(text); err != nil {
			return fmt.Errorf("prompt %s: invalid %s template: %w", d.Name, part, err)
		}
	}
	return nil
}

// loadOverrides 读取 dir 下所有 .yaml/.yml；name 缺省时取文件名
func loadOverrides(dir string) ([]Definition, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read prompts dir %s: %w", dir, err)
	}
	var out []Definition
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var d Definition
		if err := yaml.Unmarshal(b, &d); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		base := strings.TrimSuffix(e.Name(), ext)
		if d.Name == "" {
			d.Name = base
		}
		if d.Name != base {
			return nil, fmt.Errorf("%s: name %q does not match file name", path, d.Name)
		}
		if !known(d.Name) {
			return nil, fmt.Errorf("%s: unknown prompt %q", path, d.Name)
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
