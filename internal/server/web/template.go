package web

import "github.com/categolj/entry-api-gemfire/internal/entry"

// templateMarkdown renders a starter article so editors begin from a
// consistent structure.
func templateMarkdown() string {
	e := entry.Entry{
		FrontMatter: entry.FrontMatter{
			Title: "How to Build a REST API with Spring Boot",
			Categories: []entry.Category{
				{Name: "Programming"}, {Name: "Java"}, {Name: "Spring"},
			},
			Tags: []entry.Tag{
				{Name: "Java"}, {Name: "Spring Boot"}, {Name: "Tutorial"},
			},
		},
		Content: `### Introduction

Briefly introduce the topic and what readers will learn.

### Prerequisites

- List any required knowledge
- Tools or software needed
- Version requirements

### Main Content

#### Step 1: Getting Started

Explain the first concept or step with clear examples.

` + "```java" + `
// Example code snippet
public class Example {
    public static void main(String[] args) {
        System.out.println("Hello World");
    }
}
` + "```" + `

#### Step 2: Implementation

Continue with detailed implementation steps.

#### Step 3: Testing

Show how to verify the implementation works correctly.

### Common Issues and Solutions

- **Issue 1**: Description and solution
- **Issue 2**: Description and solution

### Conclusion

Summarize key takeaways and suggest next steps for further learning.

### References

- [Official Documentation](https://example.com)
- Related articles or resources`,
		Created: entry.Author{Name: "system"},
		Updated: entry.Author{Name: "system"},
	}
	return e.ToMarkdown()
}
