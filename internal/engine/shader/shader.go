// Package shader provides OpenGL shader compilation utilities.
package shader

import (
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bluebear/internal/logger"
)

// ErrCompile is returned when a stage fails to compile or the program fails to link.
var ErrCompile = errors.New("shader compilation failed")

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, errors.Wrapf(ErrCompile, "link: %s", strings.TrimRight(log, "\x00"))
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, errors.Wrapf(ErrCompile, "%s shader: %s", name, strings.TrimRight(log, "\x00"))
	}

	return shader, nil
}

// Cache keeps linked programs by name and the uniform locations looked up
// in each of them. Locations that resolve to -1 are cached too, so missing
// uniforms are only queried once.
type Cache struct {
	programs  map[string]uint32
	locations map[uint32]map[string]int32
}

// NewCache returns an empty program cache.
func NewCache() *Cache {
	return &Cache{
		programs:  make(map[string]uint32),
		locations: make(map[uint32]map[string]int32),
	}
}

// Program returns the program registered under name, compiling it from
// the given sources on first request.
func (c *Cache) Program(name, vertexSrc, fragmentSrc string) (uint32, error) {
	if p, ok := c.programs[name]; ok {
		return p, nil
	}
	p, err := CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return 0, errors.Wrapf(err, "program %q", name)
	}
	c.programs[name] = p
	c.locations[p] = make(map[string]int32)
	logger.Debug("shader program created", zap.String("name", name), zap.Uint32("program", p))
	return p, nil
}

// Uniform returns the cached location of name in program.
func (c *Cache) Uniform(program uint32, name string) int32 {
	locs, ok := c.locations[program]
	if !ok {
		locs = make(map[string]int32)
		c.locations[program] = locs
	}
	if loc, ok := locs[name]; ok {
		return loc
	}
	loc := GetUniform(program, name)
	locs[name] = loc
	return loc
}

// Len returns the number of linked programs.
func (c *Cache) Len() int {
	return len(c.programs)
}

// Delete releases every program held by the cache.
func (c *Cache) Delete() {
	for name, p := range c.programs {
		gl.DeleteProgram(p)
		delete(c.programs, name)
		delete(c.locations, p)
	}
}

// GetUniform returns the uniform location for the given name.
// Returns -1 if the uniform is not found or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
