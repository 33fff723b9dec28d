// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cbor

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// DumpCborStructure generates an indented string representing a Value tree for debugging purposes
func DumpCborStructure(v Value, prefix string) string {
	var ret bytes.Buffer
	// Children are always indented by 2 more spaces than their parent
	newPrefix := "  " + prefix
	switch v.kind {
	case KindUint:
		return fmt.Sprintf("%s0x%x (%d),\n", prefix, v.num, v.num)
	case KindNegInt:
		return fmt.Sprintf("%s-1-%d,\n", prefix, v.num)
	case KindBytes:
		return fmt.Sprintf("%s<bytes> (length %d) h'%x',\n", prefix, len(v.bytes), v.bytes)
	case KindText:
		return fmt.Sprintf("%s%s,\n", prefix, strconv.Quote(string(v.bytes)))
	case KindArray:
		if v.indefinite {
			ret.WriteString(prefix + "[_\n")
		} else {
			ret.WriteString(prefix + "[\n")
		}
		for _, item := range v.items {
			ret.WriteString(DumpCborStructure(item, newPrefix))
		}
		ret.WriteString(prefix + "],\n")
	case KindMap:
		ret.WriteString(prefix + "{\n")
		for _, entry := range v.entries {
			ret.WriteString(DumpCborStructure(entry.Key, newPrefix))
			ret.WriteString(DumpCborStructure(entry.Value, newPrefix+"=> "))
		}
		ret.WriteString(prefix + "},\n")
	case KindTag:
		ret.WriteString(fmt.Sprintf("%s%d(\n", prefix, v.num))
		ret.WriteString(DumpCborStructure(v.items[0], newPrefix))
		ret.WriteString(prefix + "),\n")
	case KindBool:
		return fmt.Sprintf("%s%t,\n", prefix, v.num == simpleTrue)
	case KindNull:
		return prefix + "null,\n"
	case KindUndefined:
		return prefix + "undefined,\n"
	case KindFloat:
		return fmt.Sprintf("%s%g,\n", prefix, v.float)
	default:
		return fmt.Sprintf("%ssimple(%d),\n", prefix, v.num)
	}
	return ret.String()
}

// String renders the value in CBOR diagnostic notation
func (v Value) String() string {
	var ret strings.Builder
	v.writeDiagnostic(&ret)
	return ret.String()
}

func (v Value) writeDiagnostic(w *strings.Builder) {
	switch v.kind {
	case KindUint:
		w.WriteString(strconv.FormatUint(v.num, 10))
	case KindNegInt:
		if v.num < 1<<63 {
			w.WriteString(strconv.FormatInt(-1-int64(v.num), 10))
		} else {
			fmt.Fprintf(w, "-1-%d", v.num)
		}
	case KindBytes:
		fmt.Fprintf(w, "h'%x'", v.bytes)
	case KindText:
		w.WriteString(strconv.Quote(string(v.bytes)))
	case KindArray:
		w.WriteString("[")
		if v.indefinite {
			w.WriteString("_ ")
		}
		for idx, item := range v.items {
			if idx > 0 {
				w.WriteString(", ")
			}
			item.writeDiagnostic(w)
		}
		w.WriteString("]")
	case KindMap:
		w.WriteString("{")
		for idx, entry := range v.entries {
			if idx > 0 {
				w.WriteString(", ")
			}
			entry.Key.writeDiagnostic(w)
			w.WriteString(": ")
			entry.Value.writeDiagnostic(w)
		}
		w.WriteString("}")
	case KindTag:
		fmt.Fprintf(w, "%d(", v.num)
		v.items[0].writeDiagnostic(w)
		w.WriteString(")")
	case KindBool:
		w.WriteString(strconv.FormatBool(v.num == simpleTrue))
	case KindNull:
		w.WriteString("null")
	case KindUndefined:
		w.WriteString("undefined")
	case KindFloat:
		w.WriteString(strconv.FormatFloat(v.float, 'g', -1, 64))
	case KindSimple:
		fmt.Fprintf(w, "simple(%d)", v.num)
	default:
		w.WriteString("<invalid>")
	}
}
