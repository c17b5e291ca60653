package query

import (
	"reflect"
	"testing"
)

func words(ws ...string) Term { return Term{Words: ws} }

func neg(ws ...string) Term { return Term{Words: ws, Negated: true} }

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Group
	}{
		{"single word folded", "Inflación", []Group{{words("inflacion")}}},
		{"and by default", "dólar blue", []Group{{words("dolar"), words("blue")}}},
		{"stop words dropped", "la suba del dólar", []Group{{words("suba"), words("dolar")}}},
		{"phrase", `"dólar blue" hoy`, []Group{{words("dolar", "blue"), words("hoy")}}},
		{"or", "milei or massa", []Group{{words("milei")}, {words("massa")}}},
		{"or binds loosest", "suba dolar or inflacion", []Group{{words("suba"), words("dolar")}, {words("inflacion")}}},
		{"negation", "inflacion -china", []Group{{words("inflacion"), neg("china")}}},
		{"negated phrase", `inflacion -"banco central"`, []Group{{words("inflacion"), neg("banco", "central")}}},
		{"unterminated quote", `"tasa de interes`, []Group{{words("tasa", "interes")}}},
		{"compound splits", "covid-19", []Group{{words("covid"), words("19")}}},
		{"dangling or", "or inflacion or", []Group{{words("inflacion")}}},
		{"uppercase OR is or", "milei OR massa", []Group{{words("milei")}, {words("massa")}}},
		{"negation only group dropped", "inflacion or -china", []Group{{words("inflacion")}}},
		{"phrase with stop word", `"la inflacion"`, []Group{{words("inflacion")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if !reflect.DeepEqual(got.Groups, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.in, got.Groups, tt.want)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "de la", "¿¡!?", "-inflacion", `""`, "or"} {
		if q := Parse(in); !q.Empty() {
			t.Errorf("Parse(%q) expected empty, got %#v", in, q.Groups)
		}
	}
}
