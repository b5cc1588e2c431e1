package classfile

// ModuleAttribute is the Module attribute of a module-info class. It is
// named to stay apart from the Module constant.
type ModuleAttribute struct {
	AttributeHeader
	Requires []ModuleRequire
	Exports  []ModuleExport
	Opens    []ModuleExport
	Uses     []Index
	Provides []ModuleProvide
	Name     Index
	Flags    AccessFlags
	Version  OptIndex
}

// ModuleRequire is a requires directive.
type ModuleRequire struct {
	Module  Index
	Flags   AccessFlags
	Version OptIndex
}

// ModuleExport is an exports or opens directive. An empty To means the
// package is exported or opened to every module.
type ModuleExport struct {
	To      []Index
	Package Index
	Flags   AccessFlags
}

// ModuleProvide is a provides directive: a service and its implementations.
type ModuleProvide struct {
	With    []Index
	Service Index
}

func (*ModuleAttribute) attribute() {}
