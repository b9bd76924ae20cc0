// Package bundle turns a C/C++ source tree into a single-header library.
// Headers are discovered (or taken from an explicit ordered list), stripped
// of local quoted includes, "#pragma once" markers and include guards, and
// written one after another. Implementation files follow verbatim inside a
// "#if defined(<selector>)" block so consumers compile them in exactly one
// translation unit by defining the selector before including the bundle.
//
// Nothing here parses C or C++: the filter works on whole lines and the
// caller is responsible for giving headers in a valid include order.
package bundle
