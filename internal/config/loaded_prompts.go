package config

import (
	"sync"
)

var loadedPrompts = &AllLoadedPrompts{}

// LoadedPrompts holds the content of one operation's prompts loaded from files
type LoadedPrompts struct {
	System string
	User   string
}

// AllLoadedPrompts holds every prompt read from files during LoadConfig
type AllLoadedPrompts struct {
	mu      sync.RWMutex
	global  LoadedPrompts
	analyze LoadedPrompts
	chat    string
}

// GetLoadedPrompts returns the process-wide prompt store.
func GetLoadedPrompts() *AllLoadedPrompts {
	return loadedPrompts
}

// Analyze returns the analysis prompts, operation-level files winning over global ones.
func (p *AllLoadedPrompts) Analyze() LoadedPrompts {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := p.analyze
	if result.System == "" {
		result.System = p.global.System
	}
	if result.User == "" {
		result.User = p.global.User
	}
	return result
}

// Chat returns the chatbot system prompt read from file, if any.
func (p *AllLoadedPrompts) Chat() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chat
}

func (p *AllLoadedPrompts) count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := 0
	for _, s := range []string{p.global.System, p.global.User, p.analyze.System, p.analyze.User, p.chat} {
		if s != "" {
			n++
		}
	}
	return n
}

func (p *AllLoadedPrompts) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.global = LoadedPrompts{}
	p.analyze = LoadedPrompts{}
	p.chat = ""
}
