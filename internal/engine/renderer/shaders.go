package renderer

import (
	"fmt"

	"github.com/Faultbox/bluebear/internal/engine/scenegraph"
)

// MaxBones is the size of the skinning matrix array in the default shader.
const MaxBones = scenegraph.MaxBones

const defaultVertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoord;
layout (location = 3) in vec4 aJoints;
layout (location = 4) in vec4 aWeights;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;
uniform mat4 bones[%d];
uniform int skinned;

out vec3 vPosition;
out vec3 vNormal;
out vec2 vTexCoord;

void main() {
    mat4 skin = mat4(1.0);
    if (skinned == 1) {
        skin = aWeights.x * bones[int(aJoints.x)]
             + aWeights.y * bones[int(aJoints.y)]
             + aWeights.z * bones[int(aJoints.z)]
             + aWeights.w * bones[int(aJoints.w)];
    }
    vec4 world = model * skin * vec4(aPosition, 1.0);
    vPosition = world.xyz;
    vNormal = mat3(transpose(inverse(model * skin))) * aNormal;
    vTexCoord = aTexCoord;
    gl_Position = projection * view * world;
}
`

const defaultFragmentShader = `#version 410 core

struct Material {
    vec3 ambient;
    vec3 diffuse;
    vec3 specular;
    float shininess;
    sampler2D diffuse0;
};

in vec3 vPosition;
in vec3 vNormal;
in vec2 vTexCoord;

uniform Material material;
uniform int textured;
uniform vec3 camera_pos;
uniform vec4 highlight;
uniform vec3 light_dir;
uniform vec3 light_color;
uniform float ambient;

out vec4 FragColor;

void main() {
    // Unlit nodes fall back to a fixed white sun.
    vec3 toLight = length(light_dir) > 0.0 ? normalize(light_dir) : normalize(vec3(0.4, 1.0, 0.3));
    vec3 lightColor = light_color == vec3(0.0) ? vec3(1.0) : light_color;
    float amb = ambient > 0.0 ? ambient : 0.25;

    vec3 base = material.diffuse;
    if (textured == 1) {
        base = texture(material.diffuse0, vTexCoord).rgb;
    }
    vec3 n = normalize(vNormal);
    float diff = max(dot(n, toLight), 0.0);
    vec3 viewDir = normalize(camera_pos - vPosition);
    vec3 halfway = normalize(toLight + viewDir);
    float spec = pow(max(dot(n, halfway), 0.0), max(material.shininess, 1.0));

    vec3 color = (base * (amb + diff) + material.specular * spec) * lightColor;
    color = mix(color, highlight.rgb, highlight.a);
    FragColor = vec4(color, 1.0);
}
`

// DefaultShader returns the lit, optionally skinned, shader used for
// loaded models.
func DefaultShader() *scenegraph.Shader {
	return &scenegraph.Shader{
		Name:     "default",
		Vertex:   fmt.Sprintf(defaultVertexShader, MaxBones),
		Fragment: defaultFragmentShader,
	}
}
