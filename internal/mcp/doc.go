// Package mcp implements both sides of MCP (Model Context Protocol)
// for the travel agent.
//
// The Server exposes the travel tool registry as a streamable-HTTP MCP
// server: JSON-RPC 2.0 over POST, one message per request, with tool
// results returned as text content blocks plus a structuredContent
// envelope.
//
// The Client connects to remote MCP servers configured in the
// workspace, over stdio (subprocess) or streamable HTTP. Discovered
// tools are bridged into the tool registry so they appear as native
// tools to the model.
package mcp
