package typeres

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// typetype codes used by the types dump.
const (
	codePointer      = "ACCE_SS"
	codeArray        = "AR_RAY"
	codeString       = "STR_ING"
	codeRecord       = "REC_ORD"
	codeUnion        = "UNION"
	codeClass        = "CLASS"
	codeClassPointer = "CLASS_PTR"
	codeEnum         = "ENUMERATION"
	codeNotSupported = "NOT_SUPPORTED"
)

type xmlTypes struct {
	Types []xmlType `xml:"type"`
}

type xmlType struct {
	ID           string           `xml:"typeid,attr"`
	Mark         string           `xml:"typemark,attr"`
	Code         string           `xml:"typetype,attr"`
	PointerType  string           `xml:"pointer_type,attr"`
	ArrayType    string           `xml:"array_type,attr"`
	Range        *xmlRange        `xml:"range_data"`
	Fields       []xmlField       `xml:"field"`
	Constructors []xmlConstructor `xml:"constructor"`
	Enums        []xmlEnum        `xml:"enum"`
}

type xmlRange struct {
	Size string `xml:"size,attr"`
}

type xmlField struct {
	Name   string `xml:"name,attr"`
	TypeID string `xml:"typeid,attr"`
}

type xmlConstructor struct {
	Index   string `xml:"index,attr"`
	Subprog struct {
		Name             string `xml:"name,attr"`
		Parameterization string `xml:"parameterization,attr"`
	} `xml:"subprog"`
}

type xmlEnum struct {
	Value string `xml:"value,attr"`
}

type xmlParams struct {
	Units []xmlUnit `xml:"unit"`
}

type xmlUnit struct {
	Index    string       `xml:"index,attr"`
	Name     string       `xml:"name,attr"`
	Subprogs []xmlSubprog `xml:"subprog"`
	Globals  []xmlGlobal  `xml:"global"`
}

type xmlSubprog struct {
	Index     string       `xml:"index,attr"`
	Name      string       `xml:"name,attr"`
	TypeID    string       `xml:"typeid,attr"`
	Params    []xmlField   `xml:"param"`
	GlobalRef []xmlRef     `xml:"global"`
	Calls     []xmlCallRef `xml:"function"`
}

type xmlGlobal struct {
	Index  string `xml:"index,attr"`
	Name   string `xml:"name,attr"`
	TypeID string `xml:"typeid,attr"`
}

type xmlRef struct {
	Index string `xml:"index,attr"`
}

type xmlCallRef struct {
	Unit  string `xml:"unit,attr"`
	Index string `xml:"index,attr"`
}

// Load reads a types dump and a parameter dump and builds the
// resolver for them.
func Load(typesPath, paramPath string, limits Limits) (*Resolver, error) {
	tf, err := os.Open(typesPath)
	if err != nil {
		return nil, fmt.Errorf("opening types file: %w", err)
	}
	defer tf.Close()

	pf, err := os.Open(paramPath)
	if err != nil {
		return nil, fmt.Errorf("opening param file: %w", err)
	}
	defer pf.Close()

	return Decode(tf, pf, limits)
}

// Decode builds a resolver from the XML content of a types dump and a
// parameter dump.
func Decode(typesXML, paramXML io.Reader, limits Limits) (*Resolver, error) {
	var td xmlTypes
	if err := xml.NewDecoder(typesXML).Decode(&td); err != nil {
		return nil, fmt.Errorf("decoding types: %w", err)
	}
	var pd xmlParams
	if err := xml.NewDecoder(paramXML).Decode(&pd); err != nil {
		return nil, fmt.Errorf("decoding params: %w", err)
	}

	r := &Resolver{
		types:     make(map[string]Type, len(td.Types)),
		functions: make(map[string]*Function),
		limits:    limits,
	}
	r.buildTypes(td.Types)
	r.buildFunctions(pd.Units)
	return r, nil
}

// buildTypes creates every type first and then links references, so
// types may refer to ones declared later or to themselves.
func (r *Resolver) buildTypes(elems []xmlType) {
	for _, e := range elems {
		if _, dup := r.types[e.ID]; !dup {
			r.typeOrder = append(r.typeOrder, e.ID)
		}
		r.types[e.ID] = newType(e)
	}

	for _, e := range elems {
		switch t := r.types[e.ID].(type) {
		case *Pointer:
			t.Pointee = r.typeRef(e.PointerType)
		case *Array:
			if elem, ok := r.types[e.ArrayType]; ok {
				t.Element = elem
				t.Size = rangeSize(e.Range)
			} else {
				t.Element = unknownType()
			}
		case *Struct:
			for _, f := range e.Fields {
				t.Fields = setMember(t.Fields, f.Name, r.typeRef(f.TypeID))
			}
		case *Class:
			for _, c := range e.Constructors {
				name := c.Subprog.Name
				if i := strings.LastIndex(name, "::"); i >= 0 {
					name = name[i+2:]
				}
				t.Constructors = append(t.Constructors, Constructor{
					Name:  name + c.Subprog.Parameterization,
					Index: c.Index,
				})
			}
			for _, f := range e.Fields {
				t.Fields = setMember(t.Fields, f.Name, r.typeRef(f.TypeID))
			}
		case *Enum:
			for _, v := range e.Enums {
				t.Values = append(t.Values, v.Value)
			}
		}
	}
}

func newType(e xmlType) Type {
	switch e.Code {
	case codePointer, codeClassPointer:
		return &Pointer{TypeName: e.Mark}
	case codeArray:
		return &Array{TypeName: e.Mark}
	case codeString:
		return &String{TypeName: e.Mark}
	case codeRecord, codeUnion:
		return &Struct{TypeName: e.Mark}
	case codeClass:
		return &Class{TypeName: e.Mark}
	case codeEnum:
		return &Enum{TypeName: e.Mark}
	case codeNotSupported:
		return &NotSupported{TypeName: e.Mark}
	default:
		return &Basic{TypeName: e.Mark}
	}
}

// rangeSize parses a "N%%" array bound. Anything else is unbounded.
func rangeSize(rd *xmlRange) int {
	if rd == nil {
		return 0
	}
	s, ok := strings.CutSuffix(rd.Size, "%%")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (r *Resolver) typeRef(id string) Type {
	if t, ok := r.types[id]; ok {
		return t
	}
	return unknownType()
}

func unknownType() Type { return &NotSupported{TypeName: "unknown"} }

func (r *Resolver) newFunction(name string) *Function {
	return &Function{FuncName: name, limits: r.limits}
}

// buildFunctions registers every subprogram, fills in its signature
// and globals, and finally links call edges once all functions exist.
func (r *Resolver) buildFunctions(units []xmlUnit) {
	byIndex := make(map[string]map[string]string, len(units))
	for _, u := range units {
		names := make(map[string]string, len(u.Subprogs))
		for _, sp := range u.Subprogs {
			names[sp.Index] = sp.Name
			if _, ok := r.functions[sp.Name]; !ok {
				r.functions[sp.Name] = r.newFunction(sp.Name)
			}
		}
		byIndex[u.Index] = names
	}

	for _, u := range units {
		globals := make(map[string]Member, len(u.Globals))
		for _, g := range u.Globals {
			if t, ok := r.types[g.TypeID]; ok {
				globals[g.Index] = Member{Name: g.Name, Type: t}
			}
		}

		for _, sp := range u.Subprogs {
			f := r.functions[sp.Name]
			f.Unit = u.Name
			f.OriginClass = r.originClass(sp.TypeID)
			for _, p := range sp.Params {
				t := r.typeRef(p.TypeID)
				if p.Name == "return" {
					f.Return = t
					continue
				}
				f.Params = setMember(f.Params, p.Name, t)
			}
			for _, ref := range sp.GlobalRef {
				if g, ok := globals[ref.Index]; ok {
					f.Globals = setMember(f.Globals, g.Name, g.Type)
				}
			}
		}
	}

	for _, u := range units {
		for _, sp := range u.Subprogs {
			f := r.functions[sp.Name]
			seen := make(map[string]bool, len(sp.Calls))
			for _, c := range f.Calls {
				seen[c.FuncName] = true
			}
			for _, call := range sp.Calls {
				name, ok := byIndex[call.Unit][call.Index]
				if !ok {
					name = "func_" + call.Unit + "_" + call.Index
				}
				callee, ok := r.functions[name]
				if !ok {
					callee = r.newFunction("function_" + name)
					r.functions[name] = callee
				}
				if seen[callee.FuncName] {
					continue
				}
				seen[callee.FuncName] = true
				f.Calls = append(f.Calls, callee)
			}
		}
	}
}

// originClass returns the class a member function belongs to, given
// the type id of its object or object pointer.
func (r *Resolver) originClass(typeID string) *Class {
	switch t := r.types[typeID].(type) {
	case *Class:
		return t
	case *Pointer:
		if c, ok := t.Pointee.(*Class); ok {
			return c
		}
	}
	return nil
}
