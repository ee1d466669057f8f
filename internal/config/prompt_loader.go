package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptFile names one configurable prompt file and where its content goes.
type promptFile struct {
	path   string
	kind   string // "system" or "user"
	name   string
	target *string
}

func (c *Config) promptFiles(store *AllLoadedPrompts) []promptFile {
	return []promptFile{
		{c.AI.CustomPrompts.SystemPrompts.AnalyzeResumeFile, "system", "global analyzeResume", &store.global.System},
		{c.AI.CustomPrompts.UserPrompts.AnalyzeResumeFile, "user", "global analyzeResume", &store.global.User},
		{c.AI.Analyze.CustomPrompts.SystemPrompts.AnalyzeResumeFile, "system", "analyzeResume", &store.analyze.System},
		{c.AI.Analyze.CustomPrompts.UserPrompts.AnalyzeResumeFile, "user", "analyzeResume", &store.analyze.User},
		{c.Chat.SystemPromptFile, "system", "chat", &store.chat},
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	store := GetLoadedPrompts()
	store.reset()

	store.mu.Lock()
	for _, pf := range c.promptFiles(store) {
		if pf.path == "" {
			continue
		}
		content, err := loadPromptFromFile(pf.path, pf.kind, pf.name)
		if err != nil {
			store.mu.Unlock()
			return err
		}
		*pf.target = content
	}
	store.mu.Unlock()

	if n := store.count(); n == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", n)
	}
	return nil
}

// loadPromptFromFile reads a prompt file, rejecting missing or empty files
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles checks every configured prompt file exists before any is loaded
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	for _, pf := range c.promptFiles(&AllLoadedPrompts{}) {
		if pf.path == "" {
			continue
		}
		absPath, err := filepath.Abs(pf.path)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", pf.kind, pf.name, pf.path))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", pf.kind, pf.name, absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
