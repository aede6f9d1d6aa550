// Package markdown implements the file-centric content workflows: parsing
// Markdown sources with their metadata headers, discovering documents on
// disk, and importing or synchronising them into the post store.
package markdown
