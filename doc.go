// Package bamlbridge bridges strongly typed Go data structures and the
// dynamic value representation used to prompt language models and to parse
// their responses.
//
// The root package defines the dynamic value model (Value), the structured
// issue/error model shared by every conversion path, and the parse-result
// envelope handed back to callers. The schema representation lives in
// typeir, the reflection front-end in shape, the schema builder in schema,
// value conversion in convert, and union resolution in resolve.
package bamlbridge
