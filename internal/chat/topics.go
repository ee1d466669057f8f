// Package chat implements the interview-preparation chatbot: a catalogue of
// topics, a bounded per-session conversation and a Service that asks a
// langchaingo model for answers.
package chat

import (
	"fmt"
	"strings"
)

// Topic describes one interview area the assistant can coach.
type Topic struct {
	Name           string `json:"name"`
	Role           string `json:"role"`
	Goal           string `json:"goal"`
	Backstory      string `json:"backstory"`
	Task           string `json:"task"`
	ExpectedOutput string `json:"expected_output"`
	ReferenceURL   string `json:"reference_url"`
}

const interviewGoal = "Assist in preparing for %s interviews by providing detailed answers, " +
	"explanations, and guidance on the most common and challenging questions."

var topics = []Topic{
	{
		Name:           "ReactJS",
		Role:           "ReactJS Interview Preparation Expert",
		Goal:           fmt.Sprintf(interviewGoal, "ReactJS"),
		Backstory:      "A seasoned ReactJS developer with deep knowledge of the framework, best practices, and common interview questions. You help users by breaking down complex concepts and providing clear, concise explanations.",
		Task:           "Prepare detailed answers and explanations for common ReactJS interview questions. Focus on breaking down complex concepts and providing clear guidance.",
		ExpectedOutput: "A comprehensive guide to ReactJS interview preparation, including explanations of common and challenging questions.",
		ReferenceURL:   "https://github.com/sudheerj/reactjs-interview-questions/blob/master/README.md",
	},
	{
		Name:           "Angular",
		Role:           "Angular Interview Preparation Expert",
		Goal:           fmt.Sprintf(interviewGoal, "Angular"),
		Backstory:      "An experienced Angular developer with extensive knowledge of the framework, you help users by breaking down complex concepts and preparing them for interviews.",
		Task:           "Prepare detailed answers and explanations for common Angular interview questions. Focus on complex concepts and ensure clarity in the explanations.",
		ExpectedOutput: "A thorough guide to Angular interview preparation, covering both basic and advanced questions.",
		ReferenceURL:   "https://github.com/sudheerj/angular-interview-questions/blob/master/README.md",
	},
	{
		Name:           "JavaScript",
		Role:           "JavaScript Interview Preparation Expert",
		Goal:           fmt.Sprintf(interviewGoal, "JavaScript"),
		Backstory:      "An expert in JavaScript with a comprehensive understanding of the language, you assist users in mastering JavaScript concepts, helping them succeed in interviews.",
		Task:           "Prepare detailed answers and explanations for common JavaScript interview questions. Cover fundamental concepts as well as advanced topics relevant to interviews.",
		ExpectedOutput: "An in-depth JavaScript interview preparation guide, covering essential topics and challenging questions.",
		ReferenceURL:   "https://github.com/ganqqwerty/123-Essential-JavaScript-Interview-Questions/blob/master/README.md",
	},
	{
		Name:           "Vue.js",
		Role:           "Vue.js Interview Preparation Expert",
		Goal:           fmt.Sprintf(interviewGoal, "Vue.js"),
		Backstory:      "A skilled Vue.js developer with a deep understanding of the framework, you guide users through the nuances of Vue.js, helping them ace their interviews.",
		Task:           "Prepare detailed answers and explanations for common Vue.js interview questions. Highlight key concepts and provide clear guidance for interview preparation.",
		ExpectedOutput: "A detailed Vue.js interview preparation guide, focusing on key concepts and challenging questions.",
		ReferenceURL:   "https://github.com/sudheerj/vuejs-interview-questions/blob/master/README.md",
	},
	{
		Name:           "Full Stack",
		Role:           "Full Stack Developer Interview Preparation Expert",
		Goal:           fmt.Sprintf(interviewGoal, "Full Stack Developer"),
		Backstory:      "A seasoned Full Stack Developer with extensive experience in both frontend and backend technologies. You cover web development, databases, APIs, and deployment strategies so users are well prepared for interviews.",
		Task:           "Prepare comprehensive answers and explanations for Full Stack Developer interview questions. Cover both frontend and backend topics, including web development, databases, APIs, and deployment strategies.",
		ExpectedOutput: "A complete Full Stack Developer interview preparation guide, including both frontend and backend questions.",
		ReferenceURL:   "https://www.geeksforgeeks.org/full-stack-developer-interview-questions-and-answers/",
	},
	{
		Name:           "Data Science",
		Role:           "Data Science Interview Preparation Expert",
		Goal:           fmt.Sprintf(interviewGoal, "Data Science"),
		Backstory:      "An expert in Data Science with a strong background in statistics, machine learning, and data analysis. You break down algorithms, statistical methods and real-world applications so users can tackle interview challenges.",
		Task:           "Prepare detailed answers and explanations for Data Science interview questions. Focus on algorithms, statistical methods, machine learning, and real-world applications.",
		ExpectedOutput: "An exhaustive Data Science interview preparation guide, covering algorithms, statistics, and machine learning.",
		ReferenceURL:   "https://www.geeksforgeeks.org/data-science-interview-questions-and-answers/",
	},
}

// Topics returns the catalogue in display order.
func Topics() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}

// TopicNames returns the display names of every topic.
func TopicNames() []string {
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return names
}

// LookupTopic finds a topic by name, ignoring case and surrounding space.
func LookupTopic(name string) (Topic, bool) {
	name = strings.TrimSpace(name)
	for _, t := range topics {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Topic{}, false
}

// Greeting is the first assistant message of every conversation.
func Greeting(topic string) string {
	return fmt.Sprintf("Hi! I am your %s interview preparation assistant. How can I help you?", topic)
}

// SystemPrompt renders the instructions for t. extra, when set, is appended
// as additional guidance.
func (t Topic) SystemPrompt(extra string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s.\n", t.Role)
	fmt.Fprintf(&b, "Goal: %s\n", t.Goal)
	fmt.Fprintf(&b, "Background: %s\n", t.Backstory)
	fmt.Fprintf(&b, "Task: %s\n", t.Task)
	fmt.Fprintf(&b, "Expected output: %s\n", t.ExpectedOutput)
	fmt.Fprintf(&b, "A good reference for common questions is %s.\n", t.ReferenceURL)
	b.WriteString("Answer the user's question directly, explain the underlying concepts, and stay on the topic of the interview.")
	if extra = strings.TrimSpace(extra); extra != "" {
		b.WriteString("\n\n")
		b.WriteString(extra)
	}
	return b.String()
}
