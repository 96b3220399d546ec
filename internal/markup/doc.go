// Package markup classifies a TwinCAT project document into contiguous
// byte spans without building a tree. A single left-to-right pass tags
// every byte as markup, rewritable code text, or verbatim-preserved
// content; concatenating the spans reproduces the input exactly.
//
// The scanner never rewrites anything itself. It exists so the formatter
// can touch code regions while bit-for-bit preserving the XML around
// them, including attribute order, namespaces and comments that TwinCAT
// and version control both care about.
package markup
