package config

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/ace3710/segment"
)

// LoadStarlark runs a Starlark layout script. The script declares the
// layout by calling two builtins:
//
//	memory(name, start, size, type)          # type is "ro", "rw" or "bss"
//	segment(name, load, fill=False, align=1)
//
// for example:
//
//	memory("ROM", start=0x0000, size=0x8000, type="ro")
//	for n, name in enumerate(["A", "B"]):
//	    memory(name, start=0x8000 + n * 0x1000, size=0x1000, type="rw")
//	    segment(name + "_DATA", load=name, fill=True)
//	segment("CODE", load="ROM", fill=True)
func LoadStarlark(name string, src any) (lay *segment.Layout, err error) {
	lay = &segment.Layout{}
	memories := map[string]*memory{}

	word := func(value int) (uint16, error) {
		if value < 0 || value > 0xffff {
			return 0, ErrRange(value)
		}
		return uint16(value), nil
	}

	memoryFn := func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var mname, kind string
		var start, size int
		err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &mname, "start", &start, "size", &size, "type", &kind)
		if err != nil {
			return nil, err
		}
		if _, ok := memories[mname]; ok {
			return nil, ErrRepeat(mname)
		}
		mem := &memory{}
		mem.start, err = word(start)
		if err != nil {
			return nil, err
		}
		mem.size, err = word(size)
		if err != nil {
			return nil, err
		}
		access, ok := segment.ParseAccess(kind)
		if !ok {
			return nil, ErrAccess(kind)
		}
		mem.access = access
		memories[mname] = mem
		return starlark.None, nil
	}

	segmentFn := func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var sname, load string
		var fill bool
		align := 1
		err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &sname, "load", &load, "fill?", &fill, "align?", &align)
		if err != nil {
			return nil, err
		}
		mem, ok := memories[load]
		if !ok {
			return nil, ErrMemory(load)
		}
		seg := &segment.Segment{
			Name:   sname,
			Start:  mem.start,
			Size:   mem.size,
			Access: mem.access,
			Fill:   fill,
		}
		seg.Align, err = word(align)
		if err != nil {
			return nil, err
		}
		err = lay.Add(seg)
		if err != nil {
			return nil, err
		}
		return starlark.None, nil
	}

	predeclared := starlark.StringDict{
		"memory":  starlark.NewBuiltin("memory", memoryFn),
		"segment": starlark.NewBuiltin("segment", segmentFn),
	}

	thread := starlark.Thread{Name: name}
	opts := syntax.FileOptions{TopLevelControl: true, While: true}
	_, err = starlark.ExecFileOptions(&opts, &thread, name, src, predeclared)
	if err != nil {
		lay = nil
	}
	return
}
