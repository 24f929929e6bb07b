package ast

// NodeType represents the type of the AST node
type NodeType uint16

// Node types
const (
	nodeTypeValue  NodeType = 128
	nodeTypeVector NodeType = 256

	NodeTypeInt     = nodeTypeValue | 1
	NodeTypeFloat   = nodeTypeValue | 2
	NodeTypeString  = nodeTypeValue | 4
	NodeTypeBool    = nodeTypeValue | 8
	NodeTypeNull    = nodeTypeValue | 16
	NodeTypeSymbol  = nodeTypeValue | 32
	NodeTypeKeyword = nodeTypeValue | 64

	NodeTypeList       = nodeTypeVector | 1
	NodeTypeMap        = nodeTypeVector | 2
	NodeTypeExpression = nodeTypeVector | 4
)

func (nt NodeType) String() string {
	s, ok := nodeTypeName[nt]
	if ok {
		return s
	}
	return ""
}

var nodeTypeName = map[NodeType]string{
	NodeTypeInt:        "int",
	NodeTypeFloat:      "float",
	NodeTypeString:     "string",
	NodeTypeBool:       "bool",
	NodeTypeNull:       "null",
	NodeTypeSymbol:     "symbol",
	NodeTypeKeyword:    "keyword",
	NodeTypeList:       "list",
	NodeTypeMap:        "map",
	NodeTypeExpression: "expression",
}

// IsLiteral returns true for self-evaluating scalar node types.
func (nt NodeType) IsLiteral() bool {
	switch nt {
	case NodeTypeInt, NodeTypeFloat, NodeTypeString, NodeTypeBool, NodeTypeNull:
		return true
	}
	return false
}
