package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func boolProp(desc string) map[string]any {
	return map[string]any{"type": "boolean", "description": desc}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

// ToolDefinitions contains all available MCP tools
var ToolDefinitions = []Tool{
	{
		Name:        "parse_message",
		Description: "Split a raw email into headers, body, signature and forwarded original. Optionally return display paragraphs and signature blocks.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":             stringProp("Raw email text, headers first"),
				"paragraphs":       boolProp("Also return the body split into display paragraphs"),
				"signature_blocks": boolProp("Also return the signature grouped into display blocks"),
			},
			"required": []string{"text"},
		},
	},
	{
		Name:        "parse_thread",
		Description: "Decompose an email thread into visible text, signature, fragments and the chain of quoted prior messages.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":    stringProp("Raw email thread text"),
				"subject": stringProp("Subject to use when the text has no Subject: header"),
			},
			"required": []string{"text"},
		},
	},
	{
		Name:        "format_paragraphs",
		Description: "Split body text into display paragraphs. Lists and key-value blocks are kept intact and long prose is chunked by sentence.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": stringProp("Body text"),
			},
			"required": []string{"text"},
		},
	},
	{
		Name:        "format_signature",
		Description: "Group the lines of a raw signature into display blocks such as name and title, contact lines and legal notices.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"signature": stringProp("Raw signature text"),
			},
			"required": []string{"signature"},
		},
	},
	{
		Name:        "list_activities",
		Description: "List stored email activities, newest first.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"source": map[string]any{
					"type":        "string",
					"enum":        []string{"gmail", "eml", "manual", "all"},
					"description": "Filter by source. Use 'all' or omit for no filter.",
				},
				"query":      stringProp("Case-insensitive match on subject, sender or body"),
				"since_days": intProp("Only activities received in the last N days"),
				"limit":      intProp("Maximum number of results to return (default: 20)"),
			},
		},
	},
	{
		Name:        "get_activity",
		Description: "Get a stored activity with its parse result. Set rich for the full thread decomposition.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":   stringProp("Activity ID"),
				"rich": boolProp("Return the thread decomposition instead of the cheap parse"),
			},
			"required": []string{"id"},
		},
	},
}
